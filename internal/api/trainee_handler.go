package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type TraineeHandler struct {
	traineeService service.TraineeService
}

func NewTraineeHandler(traineeService service.TraineeService) *TraineeHandler {
	return &TraineeHandler{traineeService: traineeService}
}

type TraineeResponse struct {
	ID                 string    `json:"id"`
	Goal               string    `json:"goal,omitempty"`
	TrainerIDs         []string  `json:"trainerIds"`
	AssignedRoutineIDs []string  `json:"assignedRoutineIds"`
	CreatedRoutineIDs  []string  `json:"createdRoutineIds"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type SetGoalRequest struct {
	Goal string `json:"goal" binding:"max=500"`
}

func MapTraineeToResponse(t *domain.Trainee) TraineeResponse {
	return TraineeResponse{
		ID:                 t.ID.Hex(),
		Goal:               t.Goal,
		TrainerIDs:         hexIDs(t.TrainerIDs),
		AssignedRoutineIDs: hexIDs(t.AssignedRoutineIDs),
		CreatedRoutineIDs:  hexIDs(t.CreatedRoutineIDs),
		UpdatedAt:          t.UpdatedAt,
	}
}

// GetProfile godoc
// @Summary Get the trainee profile
// @Tags Trainee
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TraineeResponse
// @Router /trainee/me [get]
func (h *TraineeHandler) GetProfile(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainee, err := h.traineeService.GetTrainee(c.Request.Context(), traineeID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load trainee profile.")
		return
	}
	c.JSON(http.StatusOK, MapTraineeToResponse(trainee))
}

// SetGoal godoc
// @Summary Update the training goal
// @Tags Trainee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body SetGoalRequest true "Goal"
// @Success 200 {object} TraineeResponse
// @Router /trainee/goal [patch]
func (h *TraineeHandler) SetGoal(c *gin.Context) {
	var req SetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainee, err := h.traineeService.SetGoal(c.Request.Context(), traineeID, req.Goal)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update goal.")
		return
	}
	c.JSON(http.StatusOK, MapTraineeToResponse(trainee))
}

// GetTrainers godoc
// @Summary List linked trainers
// @Tags Trainee
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /trainee/trainers [get]
func (h *TraineeHandler) GetTrainers(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainers, err := h.traineeService.GetTrainers(c.Request.Context(), traineeID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve trainers.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(trainers))
}
