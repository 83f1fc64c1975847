package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrRoutineNotFound     = errors.New("routine not found")
	ErrRoutineAccessDenied = errors.New("access denied to this routine")
)

type RoutineInput struct {
	Name        string
	Description string
	ExerciseIDs []primitive.ObjectID
}

type RoutineService interface {
	// CreateRoutine stores a routine for a trainer (counted against the plan)
	// or for a trainee (built from their trainers' exercises).
	CreateRoutine(ctx context.Context, ownerID primitive.ObjectID, role domain.Role, in RoutineInput) (*domain.Routine, error)
	GetRoutinesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Routine, error)
	GetAssignedRoutines(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Routine, error)
	GetRoutine(ctx context.Context, userID, routineID primitive.ObjectID) (*domain.Routine, error)
	DeleteRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) error
	// AssignRoutine hands a trainer's routine to one of their linked trainees.
	AssignRoutine(ctx context.Context, trainerID, routineID, traineeID primitive.ObjectID) error
}

type routineService struct {
	routineRepo         repository.RoutineRepository
	exerciseRepo        repository.ExerciseRepository
	trainerService      TrainerService
	traineeService      TraineeService
	notificationService NotificationService
	publisher           events.Publisher
	metrics             *metrics.Manager
}

func NewRoutineService(
	routineRepo repository.RoutineRepository,
	exerciseRepo repository.ExerciseRepository,
	trainerService TrainerService,
	traineeService TraineeService,
	notificationService NotificationService,
	publisher events.Publisher,
	m *metrics.Manager,
) RoutineService {
	return &routineService{
		routineRepo:         routineRepo,
		exerciseRepo:        exerciseRepo,
		trainerService:      trainerService,
		traineeService:      traineeService,
		notificationService: notificationService,
		publisher:           publisher,
		metrics:             m,
	}
}

func (s *routineService) CreateRoutine(ctx context.Context, ownerID primitive.ObjectID, role domain.Role, in RoutineInput) (*domain.Routine, error) {
	if strings.TrimSpace(in.Name) == "" || ownerID == primitive.NilObjectID {
		return nil, errors.New("routine name and owner are required")
	}

	var allowedAuthors []primitive.ObjectID
	switch role {
	case domain.RoleTrainer:
		if err := s.trainerService.CheckCapacity(ctx, ownerID, domain.ResourceRoutines); err != nil {
			return nil, err
		}
		allowedAuthors = []primitive.ObjectID{ownerID}
	case domain.RoleTrainee:
		trainee, err := s.traineeService.GetTrainee(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		allowedAuthors = trainee.TrainerIDs
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if err := s.checkExercises(ctx, in.ExerciseIDs, allowedAuthors); err != nil {
		return nil, err
	}

	routine := &domain.Routine{
		OwnerID:     ownerID,
		OwnerRole:   role,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ExerciseIDs: in.ExerciseIDs,
	}
	routineID, err := s.routineRepo.Create(ctx, routine)
	if err != nil {
		return nil, err
	}
	routine.ID = routineID

	if role == domain.RoleTrainer {
		_, err = s.trainerService.AddRoutine(ctx, ownerID, routineID)
	} else {
		_, err = s.traineeService.AddCreatedRoutine(ctx, ownerID, routineID)
	}
	if err != nil {
		if delErr := s.routineRepo.Delete(context.WithoutCancel(ctx), routineID, ownerID); delErr != nil {
			logrus.WithError(delErr).WithField("routine", routineID.Hex()).Error("failed to remove routine after refused add")
		}
		return nil, err
	}
	return routine, nil
}

// checkExercises requires every exercise to exist and be authored by one of authors.
func (s *routineService) checkExercises(ctx context.Context, exerciseIDs, authors []primitive.ObjectID) error {
	for _, id := range exerciseIDs {
		exercise, err := s.exerciseRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrExerciseNotFound, id.Hex())
			}
			return err
		}
		if !domain.ContainsID(authors, exercise.TrainerID) {
			return fmt.Errorf("%w: %s", ErrExerciseAccessDenied, id.Hex())
		}
	}
	return nil
}

func (s *routineService) GetRoutinesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Routine, error) {
	return s.routineRepo.GetByOwnerID(ctx, ownerID)
}

// GetAssignedRoutines skips ids whose routine has since been deleted.
func (s *routineService) GetAssignedRoutines(ctx context.Context, traineeID primitive.ObjectID) ([]domain.Routine, error) {
	trainee, err := s.traineeService.GetTrainee(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	routines := make([]domain.Routine, 0, len(trainee.AssignedRoutineIDs))
	for _, id := range trainee.AssignedRoutineIDs {
		routine, err := s.routineRepo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		routines = append(routines, *routine)
	}
	return routines, nil
}

func (s *routineService) getRoutine(ctx context.Context, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}
	return routine, nil
}

func (s *routineService) GetRoutine(ctx context.Context, userID, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.getRoutine(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if routine.OwnerID == userID {
		return routine, nil
	}
	trainee, err := s.traineeService.GetTrainee(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrTraineeNotFound) {
			return nil, ErrRoutineAccessDenied
		}
		return nil, err
	}
	if !domain.ContainsID(trainee.AssignedRoutineIDs, routineID) {
		return nil, ErrRoutineAccessDenied
	}
	return routine, nil
}

func (s *routineService) DeleteRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) error {
	routine, err := s.getRoutine(ctx, routineID)
	if err != nil {
		return err
	}
	if routine.OwnerID != ownerID {
		return ErrRoutineAccessDenied
	}
	if err := s.routineRepo.Delete(ctx, routineID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoutineNotFound
		}
		return err
	}
	if routine.OwnerRole == domain.RoleTrainee {
		return s.traineeService.RemoveCreatedRoutine(ctx, ownerID, routineID)
	}
	return s.trainerService.RemoveRoutine(ctx, ownerID, routineID)
}

func (s *routineService) AssignRoutine(ctx context.Context, trainerID, routineID, traineeID primitive.ObjectID) error {
	routine, err := s.getRoutine(ctx, routineID)
	if err != nil {
		return err
	}
	if routine.OwnerID != trainerID || routine.OwnerRole != domain.RoleTrainer {
		return ErrRoutineAccessDenied
	}
	trainer, err := s.trainerService.GetTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	if !trainer.HasTrainee(traineeID) {
		return ErrTraineeNotLinked
	}

	added, err := s.traineeService.AssignRoutine(ctx, traineeID, routineID)
	if err != nil || !added {
		return err
	}

	_, err = s.notificationService.Create(ctx, &domain.Notification{
		RecipientID: traineeID,
		Kind:        domain.NotificationRoutineAssigned,
		Title:       "New routine",
		Body:        fmt.Sprintf("Your trainer assigned you %q.", routine.Name),
		Data: map[string]string{
			"routineId": routineID.Hex(),
			"trainerId": trainerID.Hex(),
		},
	})
	if err != nil {
		s.metrics.CounterNotificationFailures.Inc()
		logrus.WithError(err).WithField("trainee", traineeID.Hex()).Warn("failed to notify trainee about routine")
	}
	publish(ctx, s.publisher, events.New(events.RoutineAssigned, routineID, routine, trainerID, traineeID))
	return nil
}
