package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	statuses := []InvitationStatus{InvitationPending, InvitationAccepted, InvitationRejected}
	for _, from := range statuses {
		for _, to := range statuses {
			want := from == InvitationPending && to != InvitationPending
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestInvitation_Transition(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	inv := &Invitation{Status: InvitationPending}

	require.NoError(t, inv.Transition(InvitationAccepted, now))
	assert.Equal(t, InvitationAccepted, inv.Status)
	require.NotNil(t, inv.RespondedAt)
	assert.Equal(t, now, *inv.RespondedAt)

	err := inv.Transition(InvitationRejected, now.Add(time.Minute))
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, InvitationAccepted, inv.Status)
	assert.Equal(t, now, *inv.RespondedAt)
}

func TestInvitation_NoReopen(t *testing.T) {
	inv := &Invitation{Status: InvitationRejected}
	err := inv.Transition(InvitationPending, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateLimit(t *testing.T) {
	assert.NoError(t, ValidateLimit(ResourceClients, 2, 3))

	err := ValidateLimit(ResourceClients, 3, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, ResourceClients, capErr.Resource)
	assert.Equal(t, 3, capErr.Current)
	assert.Equal(t, 3, capErr.Max)

	assert.ErrorIs(t, ValidateLimit(ResourceRoutines, 0, 0), ErrCapacityExceeded)
}

func TestPlanLimits_Max(t *testing.T) {
	l := PlanLimits{MaxClients: 1, MaxRoutines: 2, MaxExercises: 3}
	assert.Equal(t, 1, l.Max(ResourceClients))
	assert.Equal(t, 2, l.Max(ResourceRoutines))
	assert.Equal(t, 3, l.Max(ResourceExercises))
	assert.Equal(t, 0, l.Max(Resource("other")))
}
