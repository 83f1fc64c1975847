package repository

import (
	"alcyxob/gym-platform/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDuplicate    = RepositoryError("duplicate key")
	// ErrListFull is returned by capacity-guarded appends when the list already holds max ids.
	ErrListFull = RepositoryError("list is at capacity")
	// ErrStatusMismatch is returned by compare-and-set status updates.
	ErrStatusMismatch = RepositoryError("status precondition failed")
	// ErrUnknownListField is returned when a ListField does not belong to the aggregate.
	ErrUnknownListField = RepositoryError("unknown list field")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ListField names an id list stored on an aggregate document. The value is the
// document field name.
type ListField string

const (
	TrainerAssignedTrainees ListField = "assignedTraineeIds"
	TrainerCreatedRoutines  ListField = "createdRoutineIds"
	TrainerCreatedExercises ListField = "createdExerciseIds"

	TraineeTrainers         ListField = "trainerIds"
	TraineeAssignedRoutines ListField = "assignedRoutineIds"
	TraineeCreatedRoutines  ListField = "createdRoutineIds"
)

// Unlimited disables the capacity guard of AddToList.
const Unlimited = -1

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	UpdatePlan(ctx context.Context, id primitive.ObjectID, plan domain.Plan) error
}

// TrainerRepository stores Trainer aggregates.
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	// AddToList appends value to field unless it is already present. The append is a
	// single atomic document update that only applies while the list holds fewer than
	// max ids (pass Unlimited to skip the guard). added is false when value was present.
	AddToList(ctx context.Context, trainerID primitive.ObjectID, field ListField, value primitive.ObjectID, max int) (added bool, err error)
	RemoveFromList(ctx context.Context, trainerID primitive.ObjectID, field ListField, value primitive.ObjectID) error
}

// TraineeRepository stores Trainee aggregates.
type TraineeRepository interface {
	Create(ctx context.Context, trainee *domain.Trainee) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainee, error)
	SetGoal(ctx context.Context, id primitive.ObjectID, goal string) error
	AddToList(ctx context.Context, traineeID primitive.ObjectID, field ListField, value primitive.ObjectID) (added bool, err error)
	RemoveFromList(ctx context.Context, traineeID primitive.ObjectID, field ListField, value primitive.ObjectID) error
}

// InvitationFilter narrows InvitationRepository.List. Nil/empty fields match everything.
type InvitationFilter struct {
	TrainerID *primitive.ObjectID
	TraineeID *primitive.ObjectID
	Status    domain.InvitationStatus
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *domain.Invitation) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invitation, error)
	List(ctx context.Context, filter InvitationFilter) ([]domain.Invitation, error)
	// UpdateStatus sets status to `to` only if the stored status is `from`;
	// otherwise it returns ErrStatusMismatch.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.InvitationStatus, respondedAt time.Time) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (primitive.ObjectID, error)
	// UpsertForInvitation replaces the recipient's notification for notification.InvitationID,
	// inserting it if none exists.
	UpsertForInvitation(ctx context.Context, notification *domain.Notification) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error)
	ListByInvitation(ctx context.Context, invitationID primitive.ObjectID) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID primitive.ObjectID, at time.Time) (int64, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error // Ensure trainer owns the exercise
}

type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Routine, error)
	Delete(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID) error
}
