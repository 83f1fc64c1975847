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

type traineeRepository struct {
	mu       sync.Mutex
	trainees map[primitive.ObjectID]*domain.Trainee
}

func NewTraineeRepository() repository.TraineeRepository {
	return &traineeRepository{trainees: make(map[primitive.ObjectID]*domain.Trainee)}
}

func (r *traineeRepository) Create(_ context.Context, trainee *domain.Trainee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trainees[trainee.ID]; exists {
		return repository.ErrDuplicate
	}
	stored := copyTrainee(trainee)
	stored.UpdatedAt = time.Now().UTC()
	r.trainees[trainee.ID] = stored
	return nil
}

func (r *traineeRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrainee(t), nil
}

func (r *traineeRepository) SetGoal(_ context.Context, id primitive.ObjectID, goal string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainees[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Goal = goal
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *traineeRepository) AddToList(_ context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainees[traineeID]
	if !ok {
		return false, repository.ErrNotFound
	}
	list, err := traineeList(t, field)
	if err != nil {
		return false, err
	}
	if domain.ContainsID(*list, value) {
		return false, nil
	}
	*list = append(*list, value)
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *traineeRepository) RemoveFromList(_ context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainees[traineeID]
	if !ok {
		return repository.ErrNotFound
	}
	list, err := traineeList(t, field)
	if err != nil {
		return err
	}
	*list = domain.RemoveID(*list, value)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func traineeList(t *domain.Trainee, field repository.ListField) (*[]primitive.ObjectID, error) {
	switch field {
	case repository.TraineeTrainers:
		return &t.TrainerIDs, nil
	case repository.TraineeAssignedRoutines:
		return &t.AssignedRoutineIDs, nil
	case repository.TraineeCreatedRoutines:
		return &t.CreatedRoutineIDs, nil
	default:
		return nil, fmt.Errorf("%w: %q on trainee", repository.ErrUnknownListField, field)
	}
}

func copyTrainee(t *domain.Trainee) *domain.Trainee {
	c := *t
	c.TrainerIDs = cloneIDs(t.TrainerIDs)
	c.AssignedRoutineIDs = cloneIDs(t.AssignedRoutineIDs)
	c.CreatedRoutineIDs = cloneIDs(t.CreatedRoutineIDs)
	return &c
}
