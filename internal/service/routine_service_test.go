package service

import (
	"alcyxob/gym-platform/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRoutineService_TrainerRoutine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)
	other := f.register(t, domain.RoleTrainer)

	own, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Squat"})
	require.NoError(t, err)
	foreign, err := f.exercises.CreateExercise(ctx, other.ID, ExerciseInput{Name: "Bench"})
	require.NoError(t, err)

	_, err = f.routines.CreateRoutine(ctx, trainer.ID, domain.RoleTrainer, RoutineInput{
		Name: "Push", ExerciseIDs: []primitive.ObjectID{own.ID, foreign.ID},
	})
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)

	routine, err := f.routines.CreateRoutine(ctx, trainer.ID, domain.RoleTrainer, RoutineInput{
		Name: "Legs", ExerciseIDs: []primitive.ObjectID{own.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTrainer, routine.OwnerRole)

	agg, err := f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{routine.ID}, agg.CreatedRoutineIDs)

	list, err := f.routines.GetRoutinesByOwner(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, f.routines.DeleteRoutine(ctx, other.ID, routine.ID), ErrRoutineAccessDenied)
	require.NoError(t, f.routines.DeleteRoutine(ctx, trainer.ID, routine.ID))
	agg, err = f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, agg.CreatedRoutineIDs)
}

func TestRoutineService_CreateRespectsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withPlans(PlanCatalog{Free: domain.PlanLimits{MaxRoutines: 1}}))
	trainer := f.register(t, domain.RoleTrainer)

	_, err := f.routines.CreateRoutine(ctx, trainer.ID, domain.RoleTrainer, RoutineInput{Name: "A"})
	require.NoError(t, err)
	_, err = f.routines.CreateRoutine(ctx, trainer.ID, domain.RoleTrainer, RoutineInput{Name: "B"})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	list, err := f.routines.GetRoutinesByOwner(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRoutineService_Assign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)
	trainee := f.register(t, domain.RoleTrainee)
	stranger := f.register(t, domain.RoleTrainee)

	routine, err := f.routines.CreateRoutine(ctx, trainer.ID, domain.RoleTrainer, RoutineInput{Name: "Full body"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.routines.AssignRoutine(ctx, trainer.ID, routine.ID, trainee.ID), ErrTraineeNotLinked)

	f.link(t, trainer, trainee)
	require.NoError(t, f.routines.AssignRoutine(ctx, trainer.ID, routine.ID, trainee.ID))
	require.NoError(t, f.routines.AssignRoutine(ctx, trainer.ID, routine.ID, trainee.ID))

	assigned, err := f.routines.GetAssignedRoutines(ctx, trainee.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, routine.ID, assigned[0].ID)

	unread, err := f.notifications.ListForRecipient(ctx, trainee.ID, true)
	require.NoError(t, err)
	var routineNotes int
	for _, n := range unread {
		if n.Kind == domain.NotificationRoutineAssigned {
			routineNotes++
			assert.Equal(t, routine.ID.Hex(), n.Data["routineId"])
		}
	}
	assert.Equal(t, 1, routineNotes, "repeated assignment does not notify twice")

	got, err := f.routines.GetRoutine(ctx, trainee.ID, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Full body", got.Name)

	_, err = f.routines.GetRoutine(ctx, stranger.ID, routine.ID)
	assert.ErrorIs(t, err, ErrRoutineAccessDenied)

	other := f.register(t, domain.RoleTrainer)
	assert.ErrorIs(t, f.routines.AssignRoutine(ctx, other.ID, routine.ID, trainee.ID), ErrRoutineAccessDenied)
}

func TestRoutineService_TraineeRoutine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trainer := f.register(t, domain.RoleTrainer)
	trainee := f.register(t, domain.RoleTrainee)
	exercise, err := f.exercises.CreateExercise(ctx, trainer.ID, ExerciseInput{Name: "Plank"})
	require.NoError(t, err)

	input := RoutineInput{Name: "Mornings", ExerciseIDs: []primitive.ObjectID{exercise.ID}}
	_, err = f.routines.CreateRoutine(ctx, trainee.ID, domain.RoleTrainee, input)
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)

	f.link(t, trainer, trainee)
	routine, err := f.routines.CreateRoutine(ctx, trainee.ID, domain.RoleTrainee, input)
	require.NoError(t, err)

	agg, err := f.trainees.GetTrainee(ctx, trainee.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{routine.ID}, agg.CreatedRoutineIDs)

	// trainee routines do not count against the trainer's plan
	trainerAgg, err := f.trainers.GetTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, trainerAgg.CreatedRoutineIDs)

	require.NoError(t, f.routines.DeleteRoutine(ctx, trainee.ID, routine.ID))
	agg, err = f.trainees.GetTrainee(ctx, trainee.ID)
	require.NoError(t, err)
	assert.Empty(t, agg.CreatedRoutineIDs)
}
