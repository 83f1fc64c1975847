package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoutineHandler struct {
	routineService service.RoutineService
}

func NewRoutineHandler(routineService service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: routineService}
}

type CreateRoutineRequest struct {
	Name        string   `json:"name" binding:"required,max=120"`
	Description string   `json:"description" binding:"max=1000"`
	ExerciseIDs []string `json:"exerciseIds" binding:"dive,len=24,hexadecimal"`
}

type AssignRoutineRequest struct {
	TraineeID string `json:"traineeId" binding:"required,len=24,hexadecimal"`
}

type RoutineResponse struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"ownerId"`
	OwnerRole   domain.Role `json:"ownerRole"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	ExerciseIDs []string    `json:"exerciseIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func MapRoutineToResponse(r *domain.Routine) RoutineResponse {
	return RoutineResponse{
		ID:          r.ID.Hex(),
		OwnerID:     r.OwnerID.Hex(),
		OwnerRole:   r.OwnerRole,
		Name:        r.Name,
		Description: r.Description,
		ExerciseIDs: hexIDs(r.ExerciseIDs),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func MapRoutinesToResponse(routines []domain.Routine) []RoutineResponse {
	responses := make([]RoutineResponse, len(routines))
	for i := range routines {
		responses[i] = MapRoutineToResponse(&routines[i])
	}
	return responses
}

// CreateRoutine godoc
// @Summary Create a routine
// @Description Trainers build routines from their own exercises (counted against the plan). Trainees may use exercises from their trainers.
// @Tags Routines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param routine body CreateRoutineRequest true "Routine"
// @Success 201 {object} RoutineResponse
// @Failure 402 {object} gin.H "Plan routine limit reached"
// @Router /routines [post]
func (h *RoutineHandler) CreateRoutine(c *gin.Context) {
	var req CreateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify role from token.")
		return
	}

	exerciseIDs := make([]primitive.ObjectID, 0, len(req.ExerciseIDs))
	for _, raw := range req.ExerciseIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
			return
		}
		exerciseIDs = append(exerciseIDs, id)
	}

	routine, err := h.routineService.CreateRoutine(c.Request.Context(), ownerID, role, service.RoutineInput{
		Name:        req.Name,
		Description: req.Description,
		ExerciseIDs: exerciseIDs,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to create routine.")
		return
	}
	c.JSON(http.StatusCreated, MapRoutineToResponse(routine))
}

// ListOwn godoc
// @Summary Routines created by the caller
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RoutineResponse
// @Router /routines [get]
func (h *RoutineHandler) ListOwn(c *gin.Context) {
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}
	routines, err := h.routineService.GetRoutinesByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve routines.")
		return
	}
	c.JSON(http.StatusOK, MapRoutinesToResponse(routines))
}

// ListAssigned godoc
// @Summary Routines assigned to the trainee
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RoutineResponse
// @Router /trainee/routines [get]
func (h *RoutineHandler) ListAssigned(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	routines, err := h.routineService.GetAssignedRoutines(c.Request.Context(), traineeID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve routines.")
		return
	}
	c.JSON(http.StatusOK, MapRoutinesToResponse(routines))
}

// GetRoutine godoc
// @Summary Get one routine
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param id path string true "Routine ID"
// @Success 200 {object} RoutineResponse
// @Router /routines/{id} [get]
func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	routine, err := h.routineService.GetRoutine(c.Request.Context(), userID, routineID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve routine.")
		return
	}
	c.JSON(http.StatusOK, MapRoutineToResponse(routine))
}

// DeleteRoutine godoc
// @Summary Delete a routine owned by the caller
// @Tags Routines
// @Security BearerAuth
// @Param id path string true "Routine ID"
// @Success 204
// @Router /routines/{id} [delete]
func (h *RoutineHandler) DeleteRoutine(c *gin.Context) {
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.routineService.DeleteRoutine(c.Request.Context(), ownerID, routineID); err != nil {
		respondWithServiceError(c, err, "Failed to delete routine.")
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignRoutine godoc
// @Summary Assign a routine to a linked trainee
// @Tags Routines
// @Accept json
// @Security BearerAuth
// @Param id path string true "Routine ID"
// @Param body body AssignRoutineRequest true "Trainee"
// @Success 204
// @Failure 409 {object} gin.H "Trainee is not linked"
// @Router /routines/{id}/assign [post]
func (h *RoutineHandler) AssignRoutine(c *gin.Context) {
	var req AssignRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	traineeID, err := primitive.ObjectIDFromHex(req.TraineeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid traineeId format.")
		return
	}
	if err := h.routineService.AssignRoutine(c.Request.Context(), trainerID, routineID, traineeID); err != nil {
		respondWithServiceError(c, err, "Failed to assign routine.")
		return
	}
	c.Status(http.StatusNoContent)
}
