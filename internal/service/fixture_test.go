package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository"
	"alcyxob/gym-platform/internal/repository/memory"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

var testPlans = PlanCatalog{
	Free:    domain.PlanLimits{MaxClients: 3, MaxRoutines: 5, MaxExercises: 20},
	Premium: domain.PlanLimits{MaxClients: 100, MaxRoutines: 500, MaxExercises: 2000},
}

type repos struct {
	users         repository.UserRepository
	trainers      repository.TrainerRepository
	trainees      repository.TraineeRepository
	invitations   repository.InvitationRepository
	notifications repository.NotificationRepository
	exercises     repository.ExerciseRepository
	routines      repository.RoutineRepository
}

type fixtureSetup struct {
	repos          repos
	plans          PlanCatalog
	invitationOpts InvitationOptions
}

type fixtureOption func(*fixtureSetup)

func withPlans(plans PlanCatalog) fixtureOption {
	return func(s *fixtureSetup) { s.plans = plans }
}

func withRepos(fn func(*repos)) fixtureOption {
	return func(s *fixtureSetup) { fn(&s.repos) }
}

func withInvitationOptions(opts InvitationOptions) fixtureOption {
	return func(s *fixtureSetup) { s.invitationOpts = opts }
}

type fixture struct {
	repo          repos
	broker        *events.Broker
	metrics       *metrics.Manager
	storage       *fakeStorage
	auth          AuthService
	notifications NotificationService
	trainers      TrainerService
	trainees      TraineeService
	invitations   InvitationService
	exercises     ExerciseService
	routines      RoutineService
	emails        atomic.Int64
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	setup := &fixtureSetup{
		repos: repos{
			users:         memory.NewUserRepository(),
			trainers:      memory.NewTrainerRepository(),
			trainees:      memory.NewTraineeRepository(),
			invitations:   memory.NewInvitationRepository(),
			notifications: memory.NewNotificationRepository(),
			exercises:     memory.NewExerciseRepository(),
			routines:      memory.NewRoutineRepository(),
		},
		plans:          testPlans,
		invitationOpts: InvitationOptions{LookupAttempts: 2, LookupInterval: time.Millisecond},
	}
	for _, opt := range opts {
		opt(setup)
	}

	f := &fixture{
		repo:    setup.repos,
		broker:  events.NewBroker(),
		metrics: metrics.NewTestManager(),
		storage: newFakeStorage(),
	}
	t.Cleanup(f.broker.Close)

	r := setup.repos
	f.auth = NewAuthService(r.users, r.trainers, r.trainees, "test-secret", time.Hour)
	f.notifications = NewNotificationService(r.notifications, f.broker, f.metrics)
	f.trainers = NewTrainerService(r.users, r.trainers, r.trainees, f.notifications, setup.plans,
		NewLimitsCache(512*1024, time.Minute), f.broker, f.metrics)
	f.trainees = NewTraineeService(r.users, r.trainees, f.broker)
	f.invitations = NewInvitationService(r.invitations, r.users, f.trainers, f.trainees, f.notifications,
		f.broker, f.metrics, setup.invitationOpts)
	f.exercises = NewExerciseService(r.exercises, f.trainers, f.trainees, f.storage)
	f.routines = NewRoutineService(r.routines, r.exercises, f.trainers, f.trainees, f.notifications, f.broker, f.metrics)
	return f
}

func (f *fixture) register(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	n := f.emails.Add(1)
	user, err := f.auth.Register(context.Background(), RegisterInput{
		Name:     fmt.Sprintf("%s %d", role, n),
		Email:    fmt.Sprintf("%s%d@example.com", role, n),
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) invite(t *testing.T, trainer, trainee *domain.User) *domain.Invitation {
	t.Helper()
	inv, err := f.invitations.Create(context.Background(), trainer.ID, trainee.ID, "")
	require.NoError(t, err)
	return inv
}

func (f *fixture) link(t *testing.T, trainer, trainee *domain.User) {
	t.Helper()
	inv := f.invite(t, trainer, trainee)
	_, err := f.invitations.Accept(context.Background(), trainee.ID, inv.ID)
	require.NoError(t, err)
}

// fakeStorage keeps object keys in memory; "uploading" is simulated with put.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]bool
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]bool)}
}

func (s *fakeStorage) put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = true
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeStorage) ObjectExists(_ context.Context, objectKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[objectKey], nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}
