package memory

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTrainerRepository_AddToList(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainerRepository()
	trainerID := primitive.NewObjectID()
	require.NoError(t, repo.Create(ctx, &domain.Trainer{ID: trainerID, Active: true}))

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	added, err := repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, a, 2)
	require.NoError(t, err)
	assert.True(t, added)

	// idempotent
	added, err = repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, a, 2)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, b, 2)
	require.NoError(t, err)

	_, err = repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, c, 2)
	assert.ErrorIs(t, err, repository.ErrListFull)

	// already present is reported as such even when full
	added, err = repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, b, 2)
	require.NoError(t, err)
	assert.False(t, added)

	trainer, err := repo.GetByID(ctx, trainerID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, trainer.AssignedTraineeIDs)

	require.NoError(t, repo.RemoveFromList(ctx, trainerID, repository.TrainerAssignedTrainees, a))
	trainer, err = repo.GetByID(ctx, trainerID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b}, trainer.AssignedTraineeIDs)

	_, err = repo.AddToList(ctx, primitive.NewObjectID(), repository.TrainerAssignedTrainees, a, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTrainerRepository_ConcurrentAppendsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainerRepository()
	trainerID := primitive.NewObjectID()
	require.NoError(t, repo.Create(ctx, &domain.Trainer{ID: trainerID}))

	const max = 3
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AddToList(ctx, trainerID, repository.TrainerAssignedTrainees, primitive.NewObjectID(), max)
		}()
	}
	wg.Wait()

	trainer, err := repo.GetByID(ctx, trainerID)
	require.NoError(t, err)
	assert.Len(t, trainer.AssignedTraineeIDs, max)
}

func TestTrainerRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainerRepository()
	trainerID := primitive.NewObjectID()
	require.NoError(t, repo.Create(ctx, &domain.Trainer{ID: trainerID}))

	trainer, err := repo.GetByID(ctx, trainerID)
	require.NoError(t, err)
	trainer.AssignedTraineeIDs = append(trainer.AssignedTraineeIDs, primitive.NewObjectID())

	again, err := repo.GetByID(ctx, trainerID)
	require.NoError(t, err)
	assert.Empty(t, again.AssignedTraineeIDs)
}

func TestInvitationRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewInvitationRepository()

	inv := &domain.Invitation{TrainerID: primitive.NewObjectID(), TraineeID: primitive.NewObjectID()}
	id, err := repo.Create(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, inv.Status)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus(ctx, id, domain.InvitationPending, domain.InvitationAccepted, now))
	err = repo.UpdateStatus(ctx, id, domain.InvitationPending, domain.InvitationRejected, now)
	assert.ErrorIs(t, err, repository.ErrStatusMismatch)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, stored.Status)

	err = repo.UpdateStatus(ctx, primitive.NewObjectID(), domain.InvitationPending, domain.InvitationAccepted, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvitationRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewInvitationRepository()
	trainerA, trainerB := primitive.NewObjectID(), primitive.NewObjectID()
	trainee := primitive.NewObjectID()

	first, err := repo.Create(ctx, &domain.Invitation{TrainerID: trainerA, TraineeID: trainee})
	require.NoError(t, err)
	second, err := repo.Create(ctx, &domain.Invitation{TrainerID: trainerB, TraineeID: trainee})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, first, domain.InvitationPending, domain.InvitationRejected, time.Now()))

	all, err := repo.List(ctx, repository.InvitationFilter{TraineeID: &trainee})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID, "newest first")

	pending, err := repo.List(ctx, repository.InvitationFilter{TraineeID: &trainee, Status: domain.InvitationPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].ID)

	byTrainer, err := repo.List(ctx, repository.InvitationFilter{TrainerID: &trainerA})
	require.NoError(t, err)
	require.Len(t, byTrainer, 1)
	assert.Equal(t, first, byTrainer[0].ID)
}

func TestNotificationRepository_UpsertForInvitation(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	recipient := primitive.NewObjectID()
	invitationID := primitive.NewObjectID()

	firstID, err := repo.UpsertForInvitation(ctx, &domain.Notification{
		RecipientID:  recipient,
		Kind:         domain.NotificationInvitationPending,
		InvitationID: &invitationID,
	})
	require.NoError(t, err)

	secondID, err := repo.UpsertForInvitation(ctx, &domain.Notification{
		RecipientID:  recipient,
		Kind:         domain.NotificationInvitationAccepted,
		Read:         true,
		InvitationID: &invitationID,
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	list, err := repo.ListByInvitation(ctx, invitationID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationInvitationAccepted, list[0].Kind)
	assert.True(t, list[0].Read)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	recipient, other := primitive.NewObjectID(), primitive.NewObjectID()

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		id, err := repo.Create(ctx, &domain.Notification{RecipientID: recipient, Kind: domain.NotificationRoutineAssigned})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := repo.Create(ctx, &domain.Notification{RecipientID: other, Kind: domain.NotificationRoutineAssigned})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, repo.MarkRead(ctx, ids[0], now))
	count, err := repo.CountUnread(ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	modified, err := repo.MarkAllRead(ctx, recipient, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, modified)

	unread, err := repo.ListByRecipient(ctx, recipient, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	otherUnread, err := repo.CountUnread(ctx, other)
	require.NoError(t, err)
	assert.EqualValues(t, 1, otherUnread)
}

func TestAggregateRepositories_RejectUnknownListField(t *testing.T) {
	ctx := context.Background()
	trainers := NewTrainerRepository()
	trainees := NewTraineeRepository()
	id := primitive.NewObjectID()
	require.NoError(t, trainers.Create(ctx, &domain.Trainer{ID: id}))
	require.NoError(t, trainees.Create(ctx, &domain.Trainee{ID: id}))

	_, err := trainers.AddToList(ctx, id, repository.TraineeTrainers, primitive.NewObjectID(), repository.Unlimited)
	assert.ErrorIs(t, err, repository.ErrUnknownListField)
	assert.ErrorIs(t, trainers.RemoveFromList(ctx, id, "passwordHash", primitive.NewObjectID()), repository.ErrUnknownListField)

	_, err = trainees.AddToList(ctx, id, repository.TrainerAssignedTrainees, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrUnknownListField)
}
