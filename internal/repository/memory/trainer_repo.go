package memory

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type trainerRepository struct {
	mu       sync.Mutex
	trainers map[primitive.ObjectID]*domain.Trainer
}

func NewTrainerRepository() repository.TrainerRepository {
	return &trainerRepository{trainers: make(map[primitive.ObjectID]*domain.Trainer)}
}

func (r *trainerRepository) Create(_ context.Context, trainer *domain.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trainers[trainer.ID]; exists {
		return repository.ErrDuplicate
	}
	stored := copyTrainer(trainer)
	stored.UpdatedAt = time.Now().UTC()
	r.trainers[trainer.ID] = stored
	return nil
}

func (r *trainerRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrainer(t), nil
}

func (r *trainerRepository) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainers[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Active = active
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *trainerRepository) AddToList(_ context.Context, trainerID primitive.ObjectID, field repository.ListField, value primitive.ObjectID, max int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainers[trainerID]
	if !ok {
		return false, repository.ErrNotFound
	}
	list, err := trainerList(t, field)
	if err != nil {
		return false, err
	}
	if domain.ContainsID(*list, value) {
		return false, nil
	}
	if max != repository.Unlimited && len(*list) >= max {
		return false, repository.ErrListFull
	}
	*list = append(*list, value)
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *trainerRepository) RemoveFromList(_ context.Context, trainerID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainers[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	list, err := trainerList(t, field)
	if err != nil {
		return err
	}
	*list = domain.RemoveID(*list, value)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func trainerList(t *domain.Trainer, field repository.ListField) (*[]primitive.ObjectID, error) {
	switch field {
	case repository.TrainerAssignedTrainees:
		return &t.AssignedTraineeIDs, nil
	case repository.TrainerCreatedRoutines:
		return &t.CreatedRoutineIDs, nil
	case repository.TrainerCreatedExercises:
		return &t.CreatedExerciseIDs, nil
	default:
		return nil, fmt.Errorf("%w: %q on trainer", repository.ErrUnknownListField, field)
	}
}

func copyTrainer(t *domain.Trainer) *domain.Trainer {
	c := *t
	c.AssignedTraineeIDs = cloneIDs(t.AssignedTraineeIDs)
	c.CreatedRoutineIDs = cloneIDs(t.CreatedRoutineIDs)
	c.CreatedExerciseIDs = cloneIDs(t.CreatedExerciseIDs)
	return &c
}
