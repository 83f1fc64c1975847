package memory

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type invitationRepository struct {
	mu          sync.RWMutex
	invitations map[primitive.ObjectID]domain.Invitation
	order       []primitive.ObjectID // insertion order
}

func NewInvitationRepository() repository.InvitationRepository {
	return &invitationRepository{invitations: make(map[primitive.ObjectID]domain.Invitation)}
}

func (r *invitationRepository) Create(_ context.Context, invitation *domain.Invitation) (primitive.ObjectID, error) {
	if invitation.TrainerID == primitive.NilObjectID || invitation.TraineeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("invitation requires trainerId and traineeId")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	invitation.ID = primitive.NewObjectID()
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now().UTC()
	}
	if invitation.Status == "" {
		invitation.Status = domain.InvitationPending
	}
	r.invitations[invitation.ID] = *invitation
	r.order = append(r.order, invitation.ID)
	return invitation.ID, nil
}

func (r *invitationRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

// List returns matching invitations, newest first.
func (r *invitationRepository) List(_ context.Context, filter repository.InvitationFilter) ([]domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Invitation{}
	for i := len(r.order) - 1; i >= 0; i-- {
		inv := r.invitations[r.order[i]]
		if filter.TrainerID != nil && inv.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.TraineeID != nil && inv.TraineeID != *filter.TraineeID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *invitationRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.InvitationStatus, respondedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invitations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if inv.Status != from {
		return repository.ErrStatusMismatch
	}
	inv.Status = to
	at := respondedAt
	inv.RespondedAt = &at
	r.invitations[id] = inv
	return nil
}
