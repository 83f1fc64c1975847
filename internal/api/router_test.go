package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository/memory"
	"alcyxob/gym-platform/internal/service"
	"alcyxob/gym-platform/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret"

var defaultTestPlans = service.PlanCatalog{
	Free:    domain.PlanLimits{MaxClients: 3, MaxRoutines: 5, MaxExercises: 20},
	Premium: domain.PlanLimits{MaxClients: 100, MaxRoutines: 500, MaxExercises: 2000},
}

type testServer struct {
	router *gin.Engine
	broker *events.Broker
	emails atomic.Int64
}

type testUser struct {
	ID    string
	Token string
}

func newTestServer(t *testing.T, plans service.PlanCatalog) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, reg := metrics.NewTestManagerAndRegistry()
	broker := events.NewBroker()
	t.Cleanup(broker.Close)

	users := memory.NewUserRepository()
	trainers := memory.NewTrainerRepository()
	trainees := memory.NewTraineeRepository()
	exercises := memory.NewExerciseRepository()

	authService := service.NewAuthService(users, trainers, trainees, testSecret, time.Hour)
	notificationService := service.NewNotificationService(memory.NewNotificationRepository(), broker, m)
	trainerService := service.NewTrainerService(users, trainers, trainees, notificationService, plans,
		service.NewLimitsCache(512*1024, time.Minute), broker, m)
	traineeService := service.NewTraineeService(users, trainees, broker)
	invitationService := service.NewInvitationService(memory.NewInvitationRepository(), users, trainerService,
		traineeService, notificationService, broker, m,
		service.InvitationOptions{LookupAttempts: 1, LookupInterval: time.Millisecond})

	router := gin.New()
	SetupRoutes(router, Deps{
		JWTSecret:           testSecret,
		AuthService:         authService,
		TrainerService:      trainerService,
		TraineeService:      traineeService,
		InvitationService:   invitationService,
		NotificationService: notificationService,
		ExerciseService:     service.NewExerciseService(exercises, trainerService, traineeService, nopStorage{}),
		RoutineService: service.NewRoutineService(memory.NewRoutineRepository(), exercises, trainerService,
			traineeService, notificationService, broker, m),
		Subscriber: broker,
		Metrics:    m,
		Gatherer:   reg,
	})
	return &testServer{router: router, broker: broker}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) signUp(t *testing.T, role domain.Role) testUser {
	t.Helper()
	n := s.emails.Add(1)
	email := fmt.Sprintf("%s%d@example.com", role, n)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: fmt.Sprintf("%s %d", role, n), Email: email, Password: "correct horse", Role: role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[LoginResponse](t, w)
	return testUser{ID: login.User.ID, Token: login.Token}
}

func (s *testServer) invite(t *testing.T, trainer, trainee testUser) InvitationResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/trainer/invitations", trainer.Token, CreateInvitationRequest{TraineeID: trainee.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[InvitationResponse](t, w)
}

type nopStorage struct{}

func (nopStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (nopStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (nopStorage) ObjectExists(context.Context, string) (bool, error) { return false, nil }
func (nopStorage) DeleteObject(context.Context, string) error         { return nil }

var _ storage.FileStorage = nopStorage{}

func TestPingAndMetrics(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)

	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gym_test_server_request_duration_seconds")
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)

	w := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "x", "email": "x@example.com", "password": "correct horse", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	trainer := s.signUp(t, domain.RoleTrainer)
	w = s.do(t, http.MethodGet, "/api/v1/me", trainer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[UserResponse](t, w)
	assert.Equal(t, trainer.ID, me.ID)
	assert.Equal(t, domain.PlanFree, me.Plan)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "dup", Email: "trainer1@example.com", Password: "correct horse", Role: domain.RoleTrainee,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "trainer1@example.com", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)
	trainer := s.signUp(t, domain.RoleTrainer)
	trainee := s.signUp(t, domain.RoleTrainee)

	w := s.do(t, http.MethodPost, "/api/v1/trainer/invitations", trainee.Token, CreateInvitationRequest{TraineeID: trainer.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	inv := s.invite(t, trainer, trainee)
	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv.ID+"/accept", trainer.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	other := s.signUp(t, domain.RoleTrainee)
	w = s.do(t, http.MethodGet, "/api/v1/invitations/"+inv.ID, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/invitations/not-an-id", trainee.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvitationFlow(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)
	trainer := s.signUp(t, domain.RoleTrainer)
	trainee := s.signUp(t, domain.RoleTrainee)

	w := s.do(t, http.MethodPost, "/api/v1/trainer/invitations", trainer.Token, CreateInvitationRequest{
		TraineeEmail: "trainee2@example.com", Message: "train with me",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[InvitationResponse](t, w)
	assert.Equal(t, domain.InvitationPending, inv.Status)
	assert.Equal(t, trainee.ID, inv.TraineeID)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/invitations", trainer.Token, CreateInvitationRequest{TraineeID: trainee.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "second pending invitation")

	w = s.do(t, http.MethodGet, "/api/v1/trainee/invitations?status=pending", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]InvitationResponse](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]int64](t, w)["unread"])

	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv.ID+"/accept", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.InvitationAccepted, decode[InvitationResponse](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv.ID+"/reject", trainee.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/trainees", trainer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	linked := decode[[]UserResponse](t, w)
	require.Len(t, linked, 1)
	assert.Equal(t, trainee.ID, linked[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/trainee/trainers", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]UserResponse](t, w), 1)

	// the trainee's own notification flips to read, the trainer gets an unread one
	w = s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]NotificationResponse](t, w))

	w = s.do(t, http.MethodGet, "/api/v1/notifications", trainer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	trainerNotes := decode[[]NotificationResponse](t, w)
	require.Len(t, trainerNotes, 1)
	assert.Equal(t, domain.NotificationInvitationAccepted, trainerNotes[0].Kind)
	assert.False(t, trainerNotes[0].Read)
	assert.Equal(t, inv.ID, trainerNotes[0].InvitationID)

	w = s.do(t, http.MethodPatch, "/api/v1/notifications/"+trainerNotes[0].ID+"/read", trainee.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/notifications/read-all", trainer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]int64](t, w)["marked"])
}

func TestAcceptOverCapacity(t *testing.T) {
	plans := defaultTestPlans
	plans.Free.MaxClients = 1
	s := newTestServer(t, plans)

	trainer := s.signUp(t, domain.RoleTrainer)
	first := s.signUp(t, domain.RoleTrainee)
	second := s.signUp(t, domain.RoleTrainee)

	inv1 := s.invite(t, trainer, first)
	inv2 := s.invite(t, trainer, second)

	w := s.do(t, http.MethodPost, "/api/v1/invitations/"+inv1.ID+"/accept", first.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv2.ID+"/accept", second.Token, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())
	body := decode[struct {
		Code     string `json:"code"`
		Resource string `json:"resource"`
		Current  int    `json:"current"`
		Max      int    `json:"max"`
	}](t, w)
	assert.Equal(t, "capacity_exceeded", body.Code)
	assert.Equal(t, string(domain.ResourceClients), body.Resource)
	assert.Equal(t, 1, body.Current)
	assert.Equal(t, 1, body.Max)

	w = s.do(t, http.MethodGet, "/api/v1/invitations/"+inv2.ID, second.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.InvitationPending, decode[InvitationResponse](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/limits", trainer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	limits := decode[LimitsResponse](t, w)
	assert.Equal(t, 1, limits.Limits.MaxClients)
	assert.Equal(t, 1, limits.Usage.MaxClients)

	// upgrading lifts the limit
	w = s.do(t, http.MethodPut, "/api/v1/trainer/plan", trainer.Token, SetPlanRequest{Plan: domain.PlanPremium})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv2.ID+"/accept", second.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUnlinkTrainee(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)
	trainer := s.signUp(t, domain.RoleTrainer)
	trainee := s.signUp(t, domain.RoleTrainee)

	inv := s.invite(t, trainer, trainee)
	w := s.do(t, http.MethodPost, "/api/v1/invitations/"+inv.ID+"/accept", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/trainer/trainees/"+trainee.ID, trainer.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/v1/trainer/trainees/"+trainee.ID, trainer.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/trainee/me", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[TraineeResponse](t, w).TrainerIDs)

	w = s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[[]NotificationResponse](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationTrainerUnlinked, notes[0].Kind)
}

func TestExercisesAndRoutines(t *testing.T) {
	s := newTestServer(t, defaultTestPlans)
	trainer := s.signUp(t, domain.RoleTrainer)
	trainee := s.signUp(t, domain.RoleTrainee)

	w := s.do(t, http.MethodPost, "/api/v1/exercises", trainer.Token, ExerciseRequest{Name: "Squat", Difficulty: "Medium"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exercise := decode[ExerciseResponse](t, w)
	assert.False(t, exercise.HasMedia)

	w = s.do(t, http.MethodPost, "/api/v1/exercises", trainer.Token, ExerciseRequest{Name: "Lunge", Difficulty: "Expert"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/"+exercise.ID+"/media", trainer.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/routines", trainer.Token, CreateRoutineRequest{
		Name: "Leg day", ExerciseIDs: []string{exercise.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	routine := decode[RoutineResponse](t, w)
	assert.Equal(t, domain.RoleTrainer, routine.OwnerRole)

	w = s.do(t, http.MethodPost, "/api/v1/routines/"+routine.ID+"/assign", trainer.Token, AssignRoutineRequest{TraineeID: trainee.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "trainee is not linked yet")

	inv := s.invite(t, trainer, trainee)
	w = s.do(t, http.MethodPost, "/api/v1/invitations/"+inv.ID+"/accept", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/routines/"+routine.ID+"/assign", trainer.Token, AssignRoutineRequest{TraineeID: trainee.ID})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/trainee/routines", trainee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assigned := decode[[]RoutineResponse](t, w)
	require.Len(t, assigned, 1)
	assert.Equal(t, routine.ID, assigned[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/"+exercise.ID, trainee.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code, "linked trainees can read their trainer's exercises")

	w = s.do(t, http.MethodPatch, "/api/v1/trainee/goal", trainee.Token, SetGoalRequest{Goal: "  run a marathon "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run a marathon", decode[TraineeResponse](t, w).Goal)
}
