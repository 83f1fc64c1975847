package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

var (
	ErrTrainerNotFound  = errors.New("trainer not found")
	ErrNotTrainer       = errors.New("user is not a trainer")
	ErrTrainerInactive  = errors.New("trainer is not active")
	ErrTraineeNotLinked = errors.New("trainee is not linked to this trainer")
	ErrUnknownPlan      = errors.New("unknown plan")
)

type TrainerService interface {
	GetTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.Trainer, error)
	// GetLimits resolves the trainer's plan tier to its capacity limits.
	GetLimits(ctx context.Context, trainerID primitive.ObjectID) (domain.PlanLimits, error)
	SetPlan(ctx context.Context, trainerID primitive.ObjectID, plan domain.Plan) (domain.PlanLimits, error)
	SetActive(ctx context.Context, trainerID primitive.ObjectID, active bool) error
	// CheckCapacity fails with a *domain.CapacityError when one more item of
	// resource would exceed the plan.
	CheckCapacity(ctx context.Context, trainerID primitive.ObjectID, resource domain.Resource) error

	// The Add* methods are idempotent. added is false when the id was already listed,
	// which is never a capacity error.
	AddTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) (added bool, err error)
	AddRoutine(ctx context.Context, trainerID, routineID primitive.ObjectID) (added bool, err error)
	AddExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (added bool, err error)
	RemoveTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) error
	RemoveRoutine(ctx context.Context, trainerID, routineID primitive.ObjectID) error
	RemoveExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error

	// Unlink drops the relationship from both aggregates and tells the trainee.
	Unlink(ctx context.Context, trainerID, traineeID primitive.ObjectID) error
	GetTrainees(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
}

type trainerService struct {
	userRepo            repository.UserRepository
	trainerRepo         repository.TrainerRepository
	traineeRepo         repository.TraineeRepository
	notificationService NotificationService
	plans               PlanCatalog
	limitsCache         *LimitsCache
	publisher           events.Publisher
	metrics             *metrics.Manager
}

func NewTrainerService(
	userRepo repository.UserRepository,
	trainerRepo repository.TrainerRepository,
	traineeRepo repository.TraineeRepository,
	notificationService NotificationService,
	plans PlanCatalog,
	limitsCache *LimitsCache,
	publisher events.Publisher,
	m *metrics.Manager,
) TrainerService {
	return &trainerService{
		userRepo:            userRepo,
		trainerRepo:         trainerRepo,
		traineeRepo:         traineeRepo,
		notificationService: notificationService,
		plans:               plans,
		limitsCache:         limitsCache,
		publisher:           publisher,
		metrics:             m,
	}
}

var resourceFields = map[domain.Resource]repository.ListField{
	domain.ResourceClients:   repository.TrainerAssignedTrainees,
	domain.ResourceRoutines:  repository.TrainerCreatedRoutines,
	domain.ResourceExercises: repository.TrainerCreatedExercises,
}

func resourceList(trainer *domain.Trainer, resource domain.Resource) []primitive.ObjectID {
	switch resource {
	case domain.ResourceClients:
		return trainer.AssignedTraineeIDs
	case domain.ResourceRoutines:
		return trainer.CreatedRoutineIDs
	case domain.ResourceExercises:
		return trainer.CreatedExerciseIDs
	}
	return nil
}

func (s *trainerService) GetTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return trainer, nil
}

func (s *trainerService) GetLimits(ctx context.Context, trainerID primitive.ObjectID) (domain.PlanLimits, error) {
	if limits, ok := s.limitsCache.Get(trainerID); ok {
		return limits, nil
	}

	user, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PlanLimits{}, ErrTrainerNotFound
		}
		return domain.PlanLimits{}, err
	}
	if !user.IsTrainer() {
		return domain.PlanLimits{}, ErrNotTrainer
	}

	limits := s.plans.For(user.Plan)
	s.limitsCache.Set(trainerID, limits)
	return limits, nil
}

// SetPlan changes the tier. Lists already above a lowered limit are kept;
// only further additions are refused.
func (s *trainerService) SetPlan(ctx context.Context, trainerID primitive.ObjectID, plan domain.Plan) (domain.PlanLimits, error) {
	if plan != domain.PlanFree && plan != domain.PlanPremium {
		return domain.PlanLimits{}, ErrUnknownPlan
	}
	if _, err := s.GetTrainer(ctx, trainerID); err != nil {
		return domain.PlanLimits{}, err
	}
	if err := s.userRepo.UpdatePlan(ctx, trainerID, plan); err != nil {
		return domain.PlanLimits{}, err
	}
	s.limitsCache.Invalidate(trainerID)

	logrus.WithFields(logrus.Fields{"trainer": trainerID.Hex(), "plan": plan}).Info("trainer plan changed")
	return s.GetLimits(ctx, trainerID)
}

func (s *trainerService) SetActive(ctx context.Context, trainerID primitive.ObjectID, active bool) error {
	if err := s.trainerRepo.SetActive(ctx, trainerID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainerNotFound
		}
		return err
	}
	publish(ctx, s.publisher, events.New(events.TrainerUpdated, trainerID, map[string]bool{"active": active}, trainerID))
	return nil
}

func (s *trainerService) CheckCapacity(ctx context.Context, trainerID primitive.ObjectID, resource domain.Resource) error {
	limits, err := s.GetLimits(ctx, trainerID)
	if err != nil {
		return err
	}
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	if err := domain.ValidateLimit(resource, len(resourceList(trainer, resource)), limits.Max(resource)); err != nil {
		s.metrics.CounterCapacityExceeded.WithLabelValues(string(resource)).Inc()
		return err
	}
	return nil
}

func (s *trainerService) AddTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) (bool, error) {
	return s.addWithLimit(ctx, trainerID, domain.ResourceClients, traineeID)
}

func (s *trainerService) AddRoutine(ctx context.Context, trainerID, routineID primitive.ObjectID) (bool, error) {
	return s.addWithLimit(ctx, trainerID, domain.ResourceRoutines, routineID)
}

func (s *trainerService) AddExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (bool, error) {
	return s.addWithLimit(ctx, trainerID, domain.ResourceExercises, exerciseID)
}

// addWithLimit validates against the plan first and then appends with a
// capacity-guarded update, so a concurrent add cannot push the list past max.
func (s *trainerService) addWithLimit(ctx context.Context, trainerID primitive.ObjectID, resource domain.Resource, id primitive.ObjectID) (bool, error) {
	if trainerID == primitive.NilObjectID || id == primitive.NilObjectID {
		return false, errors.New("trainer ID and item ID are required")
	}
	limits, err := s.GetLimits(ctx, trainerID)
	if err != nil {
		return false, err
	}
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return false, err
	}

	list := resourceList(trainer, resource)
	if domain.ContainsID(list, id) {
		return false, nil
	}
	max := limits.Max(resource)
	if err := domain.ValidateLimit(resource, len(list), max); err != nil {
		s.metrics.CounterCapacityExceeded.WithLabelValues(string(resource)).Inc()
		return false, err
	}

	added, err := s.trainerRepo.AddToList(ctx, trainerID, resourceFields[resource], id, max)
	switch {
	case errors.Is(err, repository.ErrListFull):
		s.metrics.CounterCapacityExceeded.WithLabelValues(string(resource)).Inc()
		return false, &domain.CapacityError{Resource: resource, Current: max, Max: max}
	case errors.Is(err, repository.ErrNotFound):
		return false, ErrTrainerNotFound
	case err != nil:
		return false, err
	}

	if added {
		publish(ctx, s.publisher, events.New(events.TrainerUpdated, trainerID, map[string]string{
			"resource": string(resource),
			"added":    id.Hex(),
		}, trainerID))
	}
	return added, nil
}

func (s *trainerService) RemoveTrainee(ctx context.Context, trainerID, traineeID primitive.ObjectID) error {
	return s.remove(ctx, trainerID, domain.ResourceClients, traineeID)
}

func (s *trainerService) RemoveRoutine(ctx context.Context, trainerID, routineID primitive.ObjectID) error {
	return s.remove(ctx, trainerID, domain.ResourceRoutines, routineID)
}

func (s *trainerService) RemoveExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error {
	return s.remove(ctx, trainerID, domain.ResourceExercises, exerciseID)
}

func (s *trainerService) remove(ctx context.Context, trainerID primitive.ObjectID, resource domain.Resource, id primitive.ObjectID) error {
	err := s.trainerRepo.RemoveFromList(ctx, trainerID, resourceFields[resource], id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTrainerNotFound
	}
	if err != nil {
		return err
	}
	publish(ctx, s.publisher, events.New(events.TrainerUpdated, trainerID, map[string]string{
		"resource": string(resource),
		"removed":  id.Hex(),
	}, trainerID))
	return nil
}

func (s *trainerService) Unlink(ctx context.Context, trainerID, traineeID primitive.ObjectID) error {
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	trainee, err := s.traineeRepo.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTraineeNotFound
		}
		return err
	}
	if !trainer.HasTrainee(traineeID) && !trainee.HasTrainer(trainerID) {
		return ErrTraineeNotLinked
	}

	// Two independent writes; both are attempted even if the first fails.
	err = multierr.Combine(
		s.trainerRepo.RemoveFromList(ctx, trainerID, repository.TrainerAssignedTrainees, traineeID),
		s.traineeRepo.RemoveFromList(ctx, traineeID, repository.TraineeTrainers, trainerID),
	)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"trainer": trainerID.Hex(),
			"trainee": traineeID.Hex(),
		}).Error("unlink left aggregates partially updated")
		return fmt.Errorf("unlink trainee: %w", err)
	}

	_, err = s.notificationService.Create(ctx, &domain.Notification{
		RecipientID: traineeID,
		Kind:        domain.NotificationTrainerUnlinked,
		Title:       "Trainer removed you",
		Body:        "You are no longer linked to this trainer.",
		Data:        map[string]string{"trainerId": trainerID.Hex()},
	})
	if err != nil {
		s.metrics.CounterNotificationFailures.Inc()
		logrus.WithError(err).WithField("trainee", traineeID.Hex()).Warn("failed to notify trainee about unlink")
	}

	audience := []primitive.ObjectID{trainerID, traineeID}
	publish(ctx, s.publisher, events.New(events.TrainerUpdated, trainerID, map[string]string{"unlinked": traineeID.Hex()}, audience...))
	publish(ctx, s.publisher, events.New(events.TraineeUpdated, traineeID, map[string]string{"unlinked": trainerID.Hex()}, audience...))
	return nil
}

func (s *trainerService) GetTrainees(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if len(trainer.AssignedTraineeIDs) == 0 {
		return []domain.User{}, nil
	}
	users, err := s.userRepo.GetByIDs(ctx, trainer.AssignedTraineeIDs)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
