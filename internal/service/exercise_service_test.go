package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/storage"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestExerciseService_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)

	exercise, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{
		Name:        " Squat ",
		MuscleGroup: "Legs",
		Difficulty:  "Novice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Squat", exercise.Name)
	assert.Equal(t, trainer.ID, exercise.TrainerID)

	agg, err := f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{exercise.ID}, agg.CreatedExerciseIDs)

	list, err := f.exercises.GetExercisesByTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Lunge", Difficulty: "Impossible"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	other := f.register(t, domain.RoleTrainer)
	assert.ErrorIs(t, f.exercises.DeleteExercise(ctx, other.ID, exercise.ID), ErrExerciseAccessDenied)

	require.NoError(t, f.exercises.DeleteExercise(ctx, trainer.ID, exercise.ID))
	agg, err = f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, agg.CreatedExerciseIDs)

	_, err = f.exercises.GetExerciseByID(ctx, trainer.ID, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestExerciseService_CreateRespectsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withPlans(PlanCatalog{Free: domain.PlanLimits{MaxClients: 1, MaxRoutines: 1, MaxExercises: 2}}))
	trainer := f.register(t, domain.RoleTrainer)

	for _, name := range []string{"Squat", "Press"} {
		_, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: name})
		require.NoError(t, err)
	}
	_, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Row"})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	// no orphan document was stored
	list, err := f.exercises.GetExercisesByTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestExerciseService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)
	exercise, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Squat"})
	require.NoError(t, err)

	updated, err := f.exercises.UpdateExercise(ctx, trainer.ID, exercise.ID, ExerciseInput{Name: "Front squat", Difficulty: "Advanced"})
	require.NoError(t, err)
	assert.Equal(t, "Front squat", updated.Name)

	_, err = f.exercises.UpdateExercise(ctx, primitive.NewObjectID(), exercise.ID, ExerciseInput{Name: "Mine now"})
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)
	_, err = f.exercises.UpdateExercise(ctx, trainer.ID, exercise.ID, ExerciseInput{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestExerciseService_Media(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)
	linked := f.register(t, domain.RoleTrainee)
	stranger := f.register(t, domain.RoleTrainee)
	f.link(t, trainer, linked)

	exercise, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	_, err = f.exercises.GetMediaURL(ctx, linked.ID, exercise.ID)
	assert.ErrorIs(t, err, ErrNoMedia)

	uploadURL, key, err := f.exercises.RequestMediaUpload(ctx, trainer.ID, exercise.ID, "video/mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(uploadURL, key))

	_, _, err = f.exercises.RequestMediaUpload(ctx, trainer.ID, exercise.ID, "text/html")
	assert.ErrorIs(t, err, storage.ErrUnsupportedContentType)

	_, err = f.exercises.ConfirmMedia(ctx, trainer.ID, exercise.ID, key)
	assert.ErrorIs(t, err, ErrMediaNotUploaded)
	_, err = f.exercises.ConfirmMedia(ctx, trainer.ID, exercise.ID, "exercises/elsewhere.mp4")
	assert.ErrorIs(t, err, ErrMediaKeyMismatch)

	f.storage.put(key)
	confirmed, err := f.exercises.ConfirmMedia(ctx, trainer.ID, exercise.ID, key)
	require.NoError(t, err)
	assert.Equal(t, key, confirmed.MediaObjectKey)

	url, err := f.exercises.GetMediaURL(ctx, linked.ID, exercise.ID)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	_, err = f.exercises.GetMediaURL(ctx, stranger.ID, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)

	// replacing the media removes the previous object
	_, replacement, err := f.exercises.RequestMediaUpload(ctx, trainer.ID, exercise.ID, "video/webm")
	require.NoError(t, err)
	f.storage.put(replacement)
	_, err = f.exercises.ConfirmMedia(ctx, trainer.ID, exercise.ID, replacement)
	require.NoError(t, err)
	assert.Contains(t, f.storage.deleted, key)

	require.NoError(t, f.exercises.DeleteExercise(ctx, trainer.ID, exercise.ID))
	assert.Contains(t, f.storage.deleted, replacement)
}
