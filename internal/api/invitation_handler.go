package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/service"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvitationHandler struct {
	invitationService service.InvitationService
}

func NewInvitationHandler(invitationService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// CreateInvitationRequest addresses the trainee either by email or by ID.
type CreateInvitationRequest struct {
	TraineeEmail string `json:"traineeEmail" binding:"omitempty,email"`
	TraineeID    string `json:"traineeId"`
	Message      string `json:"message" binding:"max=500"`
}

type InvitationResponse struct {
	ID          string                  `json:"id"`
	TrainerID   string                  `json:"trainerId"`
	TraineeID   string                  `json:"traineeId"`
	Status      domain.InvitationStatus `json:"status"`
	Message     string                  `json:"message,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	RespondedAt *time.Time              `json:"respondedAt,omitempty"`
}

func MapInvitationToResponse(inv *domain.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:          inv.ID.Hex(),
		TrainerID:   inv.TrainerID.Hex(),
		TraineeID:   inv.TraineeID.Hex(),
		Status:      inv.Status,
		Message:     inv.Message,
		CreatedAt:   inv.CreatedAt,
		RespondedAt: inv.RespondedAt,
	}
}

func MapInvitationsToResponse(invitations []domain.Invitation) []InvitationResponse {
	responses := make([]InvitationResponse, len(invitations))
	for i := range invitations {
		responses[i] = MapInvitationToResponse(&invitations[i])
	}
	return responses
}

// Create godoc
// @Summary Invite a trainee
// @Description Sends a pending invitation. The trainee is notified and decides later.
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInvitationRequest true "Trainee email or ID and an optional message"
// @Success 201 {object} InvitationResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Trainee not found"
// @Failure 409 {object} gin.H "Already linked or already invited"
// @Router /trainer/invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if (req.TraineeID == "") == (req.TraineeEmail == "") {
		abortWithError(c, http.StatusBadRequest, "Exactly one of traineeEmail or traineeId is required.")
		return
	}
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		invitation *domain.Invitation
		err        error
	)
	if req.TraineeID != "" {
		traineeID, parseErr := primitive.ObjectIDFromHex(req.TraineeID)
		if parseErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid traineeId format.")
			return
		}
		invitation, err = h.invitationService.Create(ctx, trainerID, traineeID, req.Message)
	} else {
		invitation, err = h.invitationService.CreateByEmail(ctx, trainerID, req.TraineeEmail, req.Message)
	}
	if err != nil {
		respondWithServiceError(c, err, "Failed to create invitation.")
		return
	}
	c.JSON(http.StatusCreated, MapInvitationToResponse(invitation))
}

// ListSent godoc
// @Summary Invitations sent by the trainer
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted or rejected"
// @Success 200 {array} InvitationResponse
// @Router /trainer/invitations [get]
func (h *InvitationHandler) ListSent(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	query, ok := invitationQuery(c)
	if !ok {
		return
	}
	query.TrainerID = &trainerID
	h.list(c, query)
}

// ListReceived godoc
// @Summary Invitations received by the trainee
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted or rejected"
// @Param activeOnly query bool false "Hide invitations from trainers that are not accepting trainees"
// @Success 200 {array} InvitationResponse
// @Router /trainee/invitations [get]
func (h *InvitationHandler) ListReceived(c *gin.Context) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	query, ok := invitationQuery(c)
	if !ok {
		return
	}
	query.TraineeID = &traineeID
	h.list(c, query)
}

func (h *InvitationHandler) list(c *gin.Context, query service.InvitationQuery) {
	invitations, err := h.invitationService.List(c.Request.Context(), query)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve invitations.")
		return
	}
	c.JSON(http.StatusOK, MapInvitationsToResponse(invitations))
}

func invitationQuery(c *gin.Context) (service.InvitationQuery, bool) {
	var query service.InvitationQuery
	if s := c.Query("status"); s != "" {
		status := domain.InvitationStatus(s)
		if !status.IsValid() {
			abortWithError(c, http.StatusBadRequest, "Invalid status filter.")
			return query, false
		}
		query.Status = status
	}
	query.ActiveOnly = c.Query("activeOnly") == "true"
	return query, true
}

// Get godoc
// @Summary Get one invitation
// @Description Only the two participants may read an invitation.
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invitation ID"
// @Success 200 {object} InvitationResponse
// @Failure 403 {object} gin.H "Not a participant"
// @Failure 404 {object} gin.H "Not found"
// @Router /invitations/{id} [get]
func (h *InvitationHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	invitationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	invitation, err := h.invitationService.Get(c.Request.Context(), userID, invitationID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve invitation.")
		return
	}
	c.JSON(http.StatusOK, MapInvitationToResponse(invitation))
}

// Accept godoc
// @Summary Accept an invitation
// @Description Links trainer and trainee. Refused with 402 when the trainer's plan is full.
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invitation ID"
// @Success 200 {object} InvitationResponse
// @Failure 402 {object} gin.H "Trainer at plan capacity"
// @Failure 403 {object} gin.H "Not the invited trainee"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Invitation already answered"
// @Router /invitations/{id}/accept [post]
func (h *InvitationHandler) Accept(c *gin.Context) {
	h.respond(c, h.invitationService.Accept, "Failed to accept invitation.")
}

// Reject godoc
// @Summary Reject an invitation
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invitation ID"
// @Success 200 {object} InvitationResponse
// @Failure 403 {object} gin.H "Not the invited trainee"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Invitation already answered"
// @Router /invitations/{id}/reject [post]
func (h *InvitationHandler) Reject(c *gin.Context) {
	h.respond(c, h.invitationService.Reject, "Failed to reject invitation.")
}

type invitationDecision func(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error)

func (h *InvitationHandler) respond(c *gin.Context, decide invitationDecision, fallback string) {
	traineeID, ok := requireUserID(c)
	if !ok {
		return
	}
	invitationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	invitation, err := decide(c.Request.Context(), traineeID, invitationID)
	if err != nil {
		respondWithServiceError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, MapInvitationToResponse(invitation))
}
