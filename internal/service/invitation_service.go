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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

var (
	ErrInvitationNotFound     = errors.New("invitation not found")
	ErrInvitationExists       = errors.New("a pending invitation already exists for this trainee")
	ErrInvitationAccessDenied = errors.New("access denied to this invitation")
	ErrAlreadyLinked          = errors.New("trainee is already linked to this trainer")
	ErrNotTrainee             = errors.New("user is not a trainee")
	ErrSelfInvitation         = errors.New("cannot invite yourself")
	ErrMessageTooLong         = errors.New("invitation message must be at most 500 characters")
)

const maxInvitationMessageLength = 500

// InvitationQuery narrows List. ActiveOnly drops invitations whose trainer is inactive.
type InvitationQuery struct {
	TrainerID  *primitive.ObjectID
	TraineeID  *primitive.ObjectID
	Status     domain.InvitationStatus
	ActiveOnly bool
}

// InvitationOptions bounds the lookup retry used by Accept and Reject.
type InvitationOptions struct {
	LookupAttempts int
	LookupInterval time.Duration
}

type InvitationService interface {
	Create(ctx context.Context, trainerID, traineeID primitive.ObjectID, message string) (*domain.Invitation, error)
	CreateByEmail(ctx context.Context, trainerID primitive.ObjectID, traineeEmail, message string) (*domain.Invitation, error)
	// Accept links trainer and trainee. Nothing is linked when the trainer is at capacity.
	Accept(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error)
	Reject(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error)
	Get(ctx context.Context, userID, invitationID primitive.ObjectID) (*domain.Invitation, error)
	List(ctx context.Context, query InvitationQuery) ([]domain.Invitation, error)
}

type invitationService struct {
	invitationRepo      repository.InvitationRepository
	userRepo            repository.UserRepository
	trainerService      TrainerService
	traineeService      TraineeService
	notificationService NotificationService
	publisher           events.Publisher
	metrics             *metrics.Manager
	opts                InvitationOptions
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	trainerService TrainerService,
	traineeService TraineeService,
	notificationService NotificationService,
	publisher events.Publisher,
	m *metrics.Manager,
	opts InvitationOptions,
) InvitationService {
	if opts.LookupAttempts < 1 {
		opts.LookupAttempts = 1
	}
	return &invitationService{
		invitationRepo:      invitationRepo,
		userRepo:            userRepo,
		trainerService:      trainerService,
		traineeService:      traineeService,
		notificationService: notificationService,
		publisher:           publisher,
		metrics:             m,
		opts:                opts,
	}
}

func (s *invitationService) CreateByEmail(ctx context.Context, trainerID primitive.ObjectID, traineeEmail, message string) (*domain.Invitation, error) {
	traineeEmail = strings.TrimSpace(traineeEmail)
	if traineeEmail == "" {
		return nil, errors.New("trainee email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, traineeEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	if !user.IsTrainee() {
		return nil, ErrNotTrainee
	}
	return s.Create(ctx, trainerID, user.ID, message)
}

func (s *invitationService) Create(ctx context.Context, trainerID, traineeID primitive.ObjectID, message string) (*domain.Invitation, error) {
	// 1. Validate input
	if trainerID == primitive.NilObjectID || traineeID == primitive.NilObjectID {
		return nil, errors.New("trainer ID and trainee ID are required")
	}
	if trainerID == traineeID {
		return nil, ErrSelfInvitation
	}
	message = strings.TrimSpace(message)
	if len([]rune(message)) > maxInvitationMessageLength {
		return nil, ErrMessageTooLong
	}

	// 2. Both sides must exist and the trainer must be accepting clients
	trainer, err := s.trainerService.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.Active {
		return nil, ErrTrainerInactive
	}
	if _, err := s.traineeService.GetTrainee(ctx, traineeID); err != nil {
		return nil, err
	}
	if trainer.HasTrainee(traineeID) {
		return nil, ErrAlreadyLinked
	}

	// 3. At most one pending invitation per pair
	pending, err := s.invitationRepo.List(ctx, repository.InvitationFilter{
		TrainerID: &trainerID,
		TraineeID: &traineeID,
		Status:    domain.InvitationPending,
	})
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, ErrInvitationExists
	}

	invitation := &domain.Invitation{
		TrainerID: trainerID,
		TraineeID: traineeID,
		Status:    domain.InvitationPending,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	invitationID, err := s.invitationRepo.Create(ctx, invitation)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrInvitationExists
		}
		return nil, err
	}
	invitation.ID = invitationID

	// 4. Tell the trainee. The invitation stands even if this fails.
	s.notify(ctx, &domain.Notification{
		RecipientID:  traineeID,
		Kind:         domain.NotificationInvitationPending,
		Title:        "New trainer invitation",
		Body:         fmt.Sprintf("%s invited you to train together.", s.displayName(ctx, trainerID, "A trainer")),
		InvitationID: &invitationID,
		Data:         map[string]string{"trainerId": trainerID.Hex()},
	})

	s.metrics.CounterInvitations.WithLabelValues(string(domain.InvitationPending)).Inc()
	publish(ctx, s.publisher, events.New(events.InvitationCreated, invitationID, invitation, trainerID, traineeID))

	logrus.WithFields(logrus.Fields{
		"invitation": invitationID.Hex(),
		"trainer":    trainerID.Hex(),
		"trainee":    traineeID.Hex(),
	}).Info("invitation created")
	return invitation, nil
}

func (s *invitationService) Accept(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error) {
	invitation, err := s.respondable(ctx, traineeID, invitationID)
	if err != nil {
		return nil, err
	}
	trainerID := invitation.TrainerID
	log := logrus.WithFields(logrus.Fields{
		"invitation": invitationID.Hex(),
		"trainer":    trainerID.Hex(),
		"trainee":    traineeID.Hex(),
	})

	// 1. Trainer side first: this is where the plan limit is enforced, so a
	//    refused accept leaves every record untouched.
	trainerAdded, err := s.trainerService.AddTrainee(ctx, trainerID, traineeID)
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			log.WithError(err).Info("invitation accept refused by plan limit")
		}
		return nil, err
	}

	// 2. Trainee side
	traineeAdded, err := s.traineeService.AddTrainer(ctx, traineeID, trainerID)
	if err != nil {
		return nil, s.compensateLink(ctx, log, err, invitationID, trainerID, traineeID, trainerAdded, false)
	}

	// 3. Close the invitation. Losing this race to a concurrent response means
	//    the other caller owns the outcome.
	now := time.Now().UTC()
	err = s.invitationRepo.UpdateStatus(ctx, invitationID, domain.InvitationPending, domain.InvitationAccepted, now)
	if err != nil {
		if errors.Is(err, repository.ErrStatusMismatch) {
			err = fmt.Errorf("%w: invitation was answered concurrently", domain.ErrInvalidTransition)
		}
		return nil, s.compensateLink(ctx, log, err, invitationID, trainerID, traineeID, trainerAdded, traineeAdded)
	}
	if err := invitation.Transition(domain.InvitationAccepted, now); err != nil {
		return nil, err
	}

	// 4. Exactly one notification per side for this invitation.
	traineeName := s.displayName(ctx, traineeID, "Your trainee")
	s.notify(ctx, &domain.Notification{
		RecipientID:  traineeID,
		Kind:         domain.NotificationInvitationAccepted,
		Title:        "Invitation accepted",
		Body:         "You are now linked to your trainer.",
		Read:         true,
		InvitationID: &invitationID,
		Data:         map[string]string{"trainerId": trainerID.Hex()},
	})
	s.notify(ctx, &domain.Notification{
		RecipientID:  trainerID,
		Kind:         domain.NotificationInvitationAccepted,
		Title:        "Invitation accepted",
		Body:         fmt.Sprintf("%s accepted your invitation.", traineeName),
		InvitationID: &invitationID,
		Data:         map[string]string{"traineeId": traineeID.Hex()},
	})

	s.metrics.CounterInvitations.WithLabelValues(string(domain.InvitationAccepted)).Inc()
	publish(ctx, s.publisher, events.New(events.InvitationAccepted, invitationID, invitation, trainerID, traineeID))
	log.Info("invitation accepted")
	return invitation, nil
}

// compensateLink undoes the list appends this call made. Appends that found the
// id already present are left alone since another request owns them, and
// nothing is undone once a concurrent accept of the same invitation has won.
func (s *invitationService) compensateLink(ctx context.Context, log *logrus.Entry, cause error, invitationID, trainerID, traineeID primitive.ObjectID, trainerAdded, traineeAdded bool) error {
	ctx = context.WithoutCancel(ctx)

	if current, err := s.invitationRepo.GetByID(ctx, invitationID); err == nil && current.Status == domain.InvitationAccepted {
		log.WithError(cause).Debug("invitation accepted by a concurrent request; keeping link")
		return cause
	}

	var undoErr error
	if traineeAdded {
		s.metrics.CounterCompensations.Inc()
		undoErr = multierr.Append(undoErr, s.traineeService.RemoveTrainer(ctx, traineeID, trainerID))
	}
	if trainerAdded {
		s.metrics.CounterCompensations.Inc()
		undoErr = multierr.Append(undoErr, s.trainerService.RemoveTrainee(ctx, trainerID, traineeID))
	}
	if undoErr != nil {
		log.WithError(undoErr).Error("failed to roll back partial invitation accept")
		return multierr.Append(cause, undoErr)
	}
	log.WithError(cause).Warn("invitation accept rolled back")
	return cause
}

func (s *invitationService) Reject(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error) {
	invitation, err := s.respondable(ctx, traineeID, invitationID)
	if err != nil {
		return nil, err
	}
	trainerID := invitation.TrainerID

	now := time.Now().UTC()
	err = s.invitationRepo.UpdateStatus(ctx, invitationID, domain.InvitationPending, domain.InvitationRejected, now)
	if err != nil {
		if errors.Is(err, repository.ErrStatusMismatch) {
			return nil, fmt.Errorf("%w: invitation was answered concurrently", domain.ErrInvalidTransition)
		}
		return nil, err
	}
	if err := invitation.Transition(domain.InvitationRejected, now); err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		RecipientID:  traineeID,
		Kind:         domain.NotificationInvitationRejected,
		Title:        "Invitation declined",
		Body:         "You declined the invitation.",
		Read:         true,
		InvitationID: &invitationID,
		Data:         map[string]string{"trainerId": trainerID.Hex()},
	})
	s.notify(ctx, &domain.Notification{
		RecipientID:  trainerID,
		Kind:         domain.NotificationInvitationRejected,
		Title:        "Invitation declined",
		Body:         fmt.Sprintf("%s declined your invitation.", s.displayName(ctx, traineeID, "Your invitee")),
		InvitationID: &invitationID,
		Data:         map[string]string{"traineeId": traineeID.Hex()},
	})

	s.metrics.CounterInvitations.WithLabelValues(string(domain.InvitationRejected)).Inc()
	publish(ctx, s.publisher, events.New(events.InvitationRejected, invitationID, invitation, trainerID, traineeID))
	logrus.WithFields(logrus.Fields{
		"invitation": invitationID.Hex(),
		"trainee":    traineeID.Hex(),
	}).Info("invitation rejected")
	return invitation, nil
}

// respondable loads an invitation the given trainee may still answer.
func (s *invitationService) respondable(ctx context.Context, traineeID, invitationID primitive.ObjectID) (*domain.Invitation, error) {
	invitation, err := s.lookup(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.TraineeID != traineeID {
		return nil, ErrInvitationAccessDenied
	}
	if !invitation.IsPending() {
		return nil, fmt.Errorf("%w: invitation is already %s", domain.ErrInvalidTransition, invitation.Status)
	}
	return invitation, nil
}

// lookup retries NotFound a bounded number of times so a response racing a
// just-created invitation on a lagging replica still finds it.
func (s *invitationService) lookup(ctx context.Context, invitationID primitive.ObjectID) (*domain.Invitation, error) {
	var invitation *domain.Invitation
	operation := func() error {
		found, err := s.invitationRepo.GetByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return backoff.Permanent(err)
		}
		invitation = found
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.LookupInterval), uint64(s.opts.LookupAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (s *invitationService) Get(ctx context.Context, userID, invitationID primitive.ObjectID) (*domain.Invitation, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if invitation.TrainerID != userID && invitation.TraineeID != userID {
		return nil, ErrInvitationAccessDenied
	}
	return invitation, nil
}

func (s *invitationService) List(ctx context.Context, query InvitationQuery) ([]domain.Invitation, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, fmt.Errorf("unknown invitation status %q", query.Status)
	}
	invitations, err := s.invitationRepo.List(ctx, repository.InvitationFilter{
		TrainerID: query.TrainerID,
		TraineeID: query.TraineeID,
		Status:    query.Status,
	})
	if err != nil {
		return nil, err
	}
	if !query.ActiveOnly {
		return invitations, nil
	}

	active := make(map[primitive.ObjectID]bool)
	filtered := make([]domain.Invitation, 0, len(invitations))
	for _, invitation := range invitations {
		isActive, seen := active[invitation.TrainerID]
		if !seen {
			trainer, err := s.trainerService.GetTrainer(ctx, invitation.TrainerID)
			switch {
			case errors.Is(err, ErrTrainerNotFound):
				isActive = false
			case err != nil:
				return nil, err
			default:
				isActive = trainer.Active
			}
			active[invitation.TrainerID] = isActive
		}
		if isActive {
			filtered = append(filtered, invitation)
		}
	}
	return filtered, nil
}

// notify writes an invitation notification. Failures are counted and logged
// but never fail the invitation flow.
func (s *invitationService) notify(ctx context.Context, n *domain.Notification) {
	if _, err := s.notificationService.UpsertForInvitation(ctx, n); err != nil {
		s.metrics.CounterNotificationFailures.Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient": n.RecipientID.Hex(),
			"kind":      n.Kind,
		}).Warn("failed to write invitation notification")
	}
}

func (s *invitationService) displayName(ctx context.Context, userID primitive.ObjectID, fallback string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.Name == "" {
		return fallback
	}
	return user.Name
}
