package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type TrainerHandler struct {
	trainerService service.TrainerService
}

func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

type TrainerResponse struct {
	ID                 string    `json:"id"`
	GymID              string    `json:"gymId,omitempty"`
	Active             bool      `json:"active"`
	AssignedTraineeIDs []string  `json:"assignedTraineeIds"`
	CreatedRoutineIDs  []string  `json:"createdRoutineIds"`
	CreatedExerciseIDs []string  `json:"createdExerciseIds"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// LimitsResponse pairs the plan limits with current usage.
type LimitsResponse struct {
	Limits domain.PlanLimits `json:"limits"`
	Usage  domain.PlanLimits `json:"usage"`
}

type SetPlanRequest struct {
	Plan domain.Plan `json:"plan" binding:"required,oneof=free premium"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func MapTrainerToResponse(t *domain.Trainer) TrainerResponse {
	return TrainerResponse{
		ID:                 t.ID.Hex(),
		GymID:              t.GymID,
		Active:             t.Active,
		AssignedTraineeIDs: hexIDs(t.AssignedTraineeIDs),
		CreatedRoutineIDs:  hexIDs(t.CreatedRoutineIDs),
		CreatedExerciseIDs: hexIDs(t.CreatedExerciseIDs),
		UpdatedAt:          t.UpdatedAt,
	}
}

// GetProfile godoc
// @Summary Get the trainer profile
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TrainerResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /trainer/me [get]
func (h *TrainerHandler) GetProfile(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainer, err := h.trainerService.GetTrainer(c.Request.Context(), trainerID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load trainer profile.")
		return
	}
	c.JSON(http.StatusOK, MapTrainerToResponse(trainer))
}

// GetLimits godoc
// @Summary Plan limits and current usage
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} LimitsResponse
// @Router /trainer/limits [get]
func (h *TrainerHandler) GetLimits(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	limits, err := h.trainerService.GetLimits(ctx, trainerID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load plan limits.")
		return
	}
	trainer, err := h.trainerService.GetTrainer(ctx, trainerID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load trainer profile.")
		return
	}
	c.JSON(http.StatusOK, LimitsResponse{
		Limits: limits,
		Usage: domain.PlanLimits{
			MaxClients:   len(trainer.AssignedTraineeIDs),
			MaxRoutines:  len(trainer.CreatedRoutineIDs),
			MaxExercises: len(trainer.CreatedExerciseIDs),
		},
	})
}

// SetPlan godoc
// @Summary Change the trainer's subscription tier
// @Description Called by the billing integration. Lowering the plan keeps existing links; only new additions are refused.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body SetPlanRequest true "New plan"
// @Success 200 {object} domain.PlanLimits
// @Router /trainer/plan [put]
func (h *TrainerHandler) SetPlan(c *gin.Context) {
	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	limits, err := h.trainerService.SetPlan(c.Request.Context(), trainerID, req.Plan)
	if err != nil {
		respondWithServiceError(c, err, "Failed to change plan.")
		return
	}
	c.JSON(http.StatusOK, limits)
}

// SetActive godoc
// @Summary Pause or resume accepting trainees
// @Tags Trainer
// @Accept json
// @Security BearerAuth
// @Param body body SetActiveRequest true "Active flag"
// @Success 204
// @Router /trainer/active [put]
func (h *TrainerHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.trainerService.SetActive(c.Request.Context(), trainerID, *req.Active); err != nil {
		respondWithServiceError(c, err, "Failed to update trainer.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTrainees godoc
// @Summary List linked trainees
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /trainer/trainees [get]
func (h *TrainerHandler) GetTrainees(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainees, err := h.trainerService.GetTrainees(c.Request.Context(), trainerID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve trainees.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(trainees))
}

// UnlinkTrainee godoc
// @Summary Remove a trainee
// @Description Drops the link on both sides and notifies the trainee.
// @Tags Trainer
// @Security BearerAuth
// @Param traineeId path string true "Trainee ID"
// @Success 204
// @Failure 409 {object} gin.H "Trainee is not linked"
// @Router /trainer/trainees/{traineeId} [delete]
func (h *TrainerHandler) UnlinkTrainee(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	traineeID, ok := pathObjectID(c, "traineeId")
	if !ok {
		return
	}
	if err := h.trainerService.Unlink(c.Request.Context(), trainerID, traineeID); err != nil {
		respondWithServiceError(c, err, "Failed to remove trainee.")
		return
	}
	c.Status(http.StatusNoContent)
}
