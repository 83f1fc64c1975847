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

type routineRepository struct {
	mu       sync.RWMutex
	routines map[primitive.ObjectID]domain.Routine
	order    []primitive.ObjectID
}

func NewRoutineRepository() repository.RoutineRepository {
	return &routineRepository{routines: make(map[primitive.ObjectID]domain.Routine)}
}

func (r *routineRepository) Create(_ context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	if routine.Name == "" || routine.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("routine name and owner ID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	routine.ExerciseIDs = cloneIDs(routine.ExerciseIDs)
	r.routines[routine.ID] = *routine
	r.order = append(r.order, routine.ID)
	return routine.ID, nil
}

func (r *routineRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routine, ok := r.routines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	routine.ExerciseIDs = cloneIDs(routine.ExerciseIDs)
	return &routine, nil
}

func (r *routineRepository) GetByOwnerID(_ context.Context, ownerID primitive.ObjectID) ([]domain.Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Routine{}
	for i := len(r.order) - 1; i >= 0; i-- {
		routine, ok := r.routines[r.order[i]]
		if ok && routine.OwnerID == ownerID {
			routine.ExerciseIDs = cloneIDs(routine.ExerciseIDs)
			out = append(out, routine)
		}
	}
	return out, nil
}

func (r *routineRepository) Delete(_ context.Context, id primitive.ObjectID, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[id]
	if !ok || routine.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.routines, id)
	return nil
}
