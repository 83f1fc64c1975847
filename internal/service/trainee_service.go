package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTraineeNotFound = errors.New("trainee not found")
	ErrGoalTooLong     = errors.New("goal must be at most 500 characters")
)

const maxGoalLength = 500

type TraineeService interface {
	GetTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.Trainee, error)
	// AddTrainer is idempotent; added is false when the trainer was already linked.
	AddTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) (added bool, err error)
	RemoveTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) error
	AssignRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) (added bool, err error)
	AddCreatedRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) (added bool, err error)
	RemoveCreatedRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) error
	SetGoal(ctx context.Context, traineeID primitive.ObjectID, goal string) (*domain.Trainee, error)
	GetTrainers(ctx context.Context, traineeID primitive.ObjectID) ([]domain.User, error)
}

type traineeService struct {
	userRepo    repository.UserRepository
	traineeRepo repository.TraineeRepository
	publisher   events.Publisher
}

func NewTraineeService(userRepo repository.UserRepository, traineeRepo repository.TraineeRepository, publisher events.Publisher) TraineeService {
	return &traineeService{
		userRepo:    userRepo,
		traineeRepo: traineeRepo,
		publisher:   publisher,
	}
}

func (s *traineeService) GetTrainee(ctx context.Context, traineeID primitive.ObjectID) (*domain.Trainee, error) {
	trainee, err := s.traineeRepo.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	return trainee, nil
}

func (s *traineeService) AddTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) (bool, error) {
	return s.add(ctx, traineeID, repository.TraineeTrainers, trainerID)
}

func (s *traineeService) RemoveTrainer(ctx context.Context, traineeID, trainerID primitive.ObjectID) error {
	return s.remove(ctx, traineeID, repository.TraineeTrainers, trainerID)
}

func (s *traineeService) AssignRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) (bool, error) {
	return s.add(ctx, traineeID, repository.TraineeAssignedRoutines, routineID)
}

func (s *traineeService) AddCreatedRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) (bool, error) {
	return s.add(ctx, traineeID, repository.TraineeCreatedRoutines, routineID)
}

func (s *traineeService) RemoveCreatedRoutine(ctx context.Context, traineeID, routineID primitive.ObjectID) error {
	return s.remove(ctx, traineeID, repository.TraineeCreatedRoutines, routineID)
}

func (s *traineeService) add(ctx context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) (bool, error) {
	if traineeID == primitive.NilObjectID || value == primitive.NilObjectID {
		return false, errors.New("trainee ID and item ID are required")
	}
	added, err := s.traineeRepo.AddToList(ctx, traineeID, field, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrTraineeNotFound
		}
		return false, err
	}
	if added {
		publish(ctx, s.publisher, events.New(events.TraineeUpdated, traineeID, map[string]string{
			"field": string(field),
			"added": value.Hex(),
		}, traineeID))
	}
	return added, nil
}

func (s *traineeService) remove(ctx context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	if err := s.traineeRepo.RemoveFromList(ctx, traineeID, field, value); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTraineeNotFound
		}
		return err
	}
	publish(ctx, s.publisher, events.New(events.TraineeUpdated, traineeID, map[string]string{
		"field":   string(field),
		"removed": value.Hex(),
	}, traineeID))
	return nil
}

func (s *traineeService) SetGoal(ctx context.Context, traineeID primitive.ObjectID, goal string) (*domain.Trainee, error) {
	goal = strings.TrimSpace(goal)
	if len([]rune(goal)) > maxGoalLength {
		return nil, ErrGoalTooLong
	}
	if err := s.traineeRepo.SetGoal(ctx, traineeID, goal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	publish(ctx, s.publisher, events.New(events.TraineeUpdated, traineeID, map[string]string{"goal": goal}, traineeID))
	return s.GetTrainee(ctx, traineeID)
}

func (s *traineeService) GetTrainers(ctx context.Context, traineeID primitive.ObjectID) ([]domain.User, error) {
	trainee, err := s.GetTrainee(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	if len(trainee.TrainerIDs) == 0 {
		return []domain.User{}, nil
	}
	users, err := s.userRepo.GetByIDs(ctx, trainee.TrainerIDs)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
