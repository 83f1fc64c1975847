package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationService_ReadState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipient, other := primitive.NewObjectID(), primitive.NewObjectID()

	var created []*domain.Notification
	for i := 0; i < 3; i++ {
		n, err := f.notifications.Create(ctx, &domain.Notification{
			RecipientID: recipient,
			Kind:        domain.NotificationRoutineAssigned,
			Title:       "New routine",
		})
		require.NoError(t, err)
		created = append(created, n)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.CounterNotifications.WithLabelValues("routine_assigned")))

	count, err := f.notifications.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	assert.ErrorIs(t, f.notifications.MarkRead(ctx, other, created[0].ID), ErrNotificationAccessDenied)
	assert.ErrorIs(t, f.notifications.MarkRead(ctx, recipient, primitive.NewObjectID()), ErrNotificationNotFound)

	require.NoError(t, f.notifications.MarkRead(ctx, recipient, created[0].ID))
	require.NoError(t, f.notifications.MarkRead(ctx, recipient, created[0].ID))

	count, err = f.notifications.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	modified, err := f.notifications.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 2, modified)

	modified, err = f.notifications.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Zero(t, modified)

	all, err := f.notifications.ListForRecipient(ctx, recipient, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, n := range all {
		assert.True(t, n.Read)
		assert.NotNil(t, n.ReadAt)
	}
}

func TestNotificationService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.notifications.Create(ctx, &domain.Notification{Kind: domain.NotificationRoutineAssigned})
	assert.Error(t, err)

	_, err = f.notifications.UpsertForInvitation(ctx, &domain.Notification{
		RecipientID: primitive.NewObjectID(),
		Kind:        domain.NotificationInvitationPending,
	})
	assert.Error(t, err)
}

func TestNotificationService_PublishesToRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipient := primitive.NewObjectID()

	stream, cancel := f.broker.Subscribe(recipient)
	defer cancel()

	n, err := f.notifications.Create(ctx, &domain.Notification{RecipientID: recipient, Kind: domain.NotificationRoutineAssigned})
	require.NoError(t, err)

	select {
	case ev := <-stream:
		assert.Equal(t, events.NotificationCreated, ev.Type)
		assert.Equal(t, n.ID.Hex(), ev.EntityID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}
