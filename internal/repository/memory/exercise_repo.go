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

type exerciseRepository struct {
	mu        sync.RWMutex
	exercises map[primitive.ObjectID]domain.Exercise
	order     []primitive.ObjectID
}

func NewExerciseRepository() repository.ExerciseRepository {
	return &exerciseRepository{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *exerciseRepository) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and trainer ID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.exercises[exercise.ID] = *exercise
	r.order = append(r.order, exercise.ID)
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ex, nil
}

func (r *exerciseRepository) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Exercise{}
	for i := len(r.order) - 1; i >= 0; i-- {
		ex, ok := r.exercises[r.order[i]]
		if ok && ex.TrainerID == trainerID {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *exerciseRepository) Update(_ context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.exercises[exercise.ID]
	if !ok {
		return repository.ErrNotFound
	}
	exercise.CreatedAt = existing.CreatedAt
	exercise.TrainerID = existing.TrainerID
	exercise.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *exerciseRepository) Delete(_ context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ex, ok := r.exercises[id]
	if !ok || ex.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}
