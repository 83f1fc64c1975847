package service

import (
	"alcyxob/gym-platform/internal/domain"
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthService_RegisterCreatesAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	trainer, err := f.auth.Register(ctx, RegisterInput{
		Name: "Tess", Email: "Tess@Example.com ", Password: testPassword, Role: domain.RoleTrainer, GymID: "downtown",
	})
	require.NoError(t, err)
	assert.Equal(t, "tess@example.com", trainer.Email)
	assert.Equal(t, domain.PlanFree, trainer.Plan)
	assert.Empty(t, trainer.PasswordHash)

	agg, err := f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.True(t, agg.Active)
	assert.Equal(t, "downtown", agg.GymID)

	trainee := f.register(t, domain.RoleTrainee)
	_, err = f.trainees.GetTrainee(ctx, trainee.ID)
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Again", Email: "tess@example.com", Password: testPassword, Role: domain.RoleTrainee})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Admin", Email: "a@example.com", Password: testPassword, Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Short", Email: "s@example.com", Password: "short", Role: domain.RoleTrainee})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainee := f.register(t, domain.RoleTrainee)

	token, user, err := f.auth.Login(ctx, trainee.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, trainee.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(f.auth.GetJWTSecret()), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, trainee.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleTrainee, claims.Role)

	_, _, err = f.auth.Login(ctx, trainee.Email, "wrong password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = f.auth.Login(ctx, "ghost@example.com", testPassword)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	got, err := f.auth.GetUser(ctx, trainee.ID)
	require.NoError(t, err)
	assert.Equal(t, trainee.Email, got.Email)
	assert.Empty(t, got.PasswordHash)
}

func TestAuthService_GetUserUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.GetUser(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
