package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationStatus is the lifecycle state of an Invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// ErrInvalidTransition is returned when an invitation is asked to leave a terminal state.
var ErrInvalidTransition = errors.New("invalid invitation status transition")

// Invitation links a trainer to a trainee once the trainee accepts it.
type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	TraineeID   primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	Status      InvitationStatus   `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// IsTerminal reports whether the status can no longer change.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationRejected
}

func (s InvitationStatus) IsValid() bool {
	return s == InvitationPending || s == InvitationAccepted || s == InvitationRejected
}

// CanTransition reports whether from -> to is allowed. Only pending may move,
// and only to one of the terminal states.
func CanTransition(from, to InvitationStatus) bool {
	return from == InvitationPending && to.IsTerminal()
}

// Transition moves the invitation to status and stamps RespondedAt.
func (i *Invitation) Transition(to InvitationStatus, now time.Time) error {
	if !CanTransition(i.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Status, to)
	}
	i.Status = to
	respondedAt := now
	i.RespondedAt = &respondedAt
	return nil
}

func (i *Invitation) IsPending() bool {
	return i.Status == InvitationPending
}
