package main

import (
	"alcyxob/gym-platform/internal/api"
	"alcyxob/gym-platform/internal/config"
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/logging"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository"
	"alcyxob/gym-platform/internal/repository/memory"
	"alcyxob/gym-platform/internal/repository/mongo"
	"alcyxob/gym-platform/internal/service"
	"alcyxob/gym-platform/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

type repositories struct {
	users         repository.UserRepository
	trainers      repository.TrainerRepository
	trainees      repository.TraineeRepository
	invitations   repository.InvitationRepository
	notifications repository.NotificationRepository
	exercises     repository.ExerciseRepository
	routines      repository.RoutineRepository
	close         func()
}

// openRepositories returns the configured backend. The memory driver is for
// local runs and tests; nothing survives a restart.
func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == "memory" {
		logrus.Warn("using in-memory repositories, data will not be persisted")
		return &repositories{
			users:         memory.NewUserRepository(),
			trainers:      memory.NewTrainerRepository(),
			trainees:      memory.NewTraineeRepository(),
			invitations:   memory.NewInvitationRepository(),
			notifications: memory.NewNotificationRepository(),
			exercises:     memory.NewExerciseRepository(),
			routines:      memory.NewRoutineRepository(),
			close:         func() {},
		}, nil
	}

	dbClient, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, err
	}
	appDB := dbClient.Database(cfg.Name)
	logrus.Info("database connection established")

	// Unique indexes back the duplicate checks, so they must exist before traffic.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	mongo.EnsureIndexes(ctx, appDB)
	cancel()

	return &repositories{
		users:         mongo.NewMongoUserRepository(appDB),
		trainers:      mongo.NewMongoTrainerRepository(appDB),
		trainees:      mongo.NewMongoTraineeRepository(appDB),
		invitations:   mongo.NewMongoInvitationRepository(appDB),
		notifications: mongo.NewMongoNotificationRepository(appDB),
		exercises:     mongo.NewMongoExerciseRepository(appDB),
		routines:      mongo.NewMongoRoutineRepository(appDB),
		close: func() {
			logrus.Info("disconnecting MongoDB")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				logrus.WithError(err).Error("failed to disconnect MongoDB")
			}
		},
	}, nil
}

// @title Gym Platform API
// @version 1.0
// @description Trainers invite trainees, manage plan-limited rosters, exercises and routines.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   true,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	})
	logrus.WithField("driver", cfg.Database.Driver).Info("starting gym platform server")

	repos, err := openRepositories(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("could not open repositories")
	}
	defer repos.close()

	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize S3 storage")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("gym", "server", registry)

	broker := events.NewBroker()
	defer broker.Close()
	publishers := events.MultiPublisher{broker}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logrus.WithError(err).Fatal("could not connect to RabbitMQ")
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		logrus.WithField("exchange", cfg.AMQP.Exchange).Info("publishing change events to RabbitMQ")
	}

	plans := service.PlanCatalog{
		Free:    planLimits(cfg.Plans.Free),
		Premium: planLimits(cfg.Plans.Premium),
	}

	authService := service.NewAuthService(repos.users, repos.trainers, repos.trainees, cfg.JWT.Secret, cfg.JWT.Expiration)
	notificationService := service.NewNotificationService(repos.notifications, publishers, m)
	trainerService := service.NewTrainerService(repos.users, repos.trainers, repos.trainees, notificationService, plans,
		service.NewLimitsCache(cfg.LimitsCache.SizeBytes, cfg.LimitsCache.TTL), publishers, m)
	traineeService := service.NewTraineeService(repos.users, repos.trainees, publishers)
	invitationService := service.NewInvitationService(repos.invitations, repos.users, trainerService, traineeService,
		notificationService, publishers, m, service.InvitationOptions{
			LookupAttempts: cfg.Invitations.LookupAttempts,
			LookupInterval: cfg.Invitations.LookupInterval,
		})
	exerciseService := service.NewExerciseService(repos.exercises, trainerService, traineeService, fileStorage)
	routineService := service.NewRoutineService(repos.routines, repos.exercises, trainerService, traineeService,
		notificationService, publishers, m)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	api.SetupRoutes(router, api.Deps{
		JWTSecret:           cfg.JWT.Secret,
		AuthService:         authService,
		TrainerService:      trainerService,
		TraineeService:      traineeService,
		InvitationService:   invitationService,
		NotificationService: notificationService,
		ExerciseService:     exerciseService,
		RoutineService:      routineService,
		Subscriber:          broker,
		Metrics:             m,
		Gatherer:            registry,
	})

	// No WriteTimeout: the notification stream holds its response open.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logrus.WithField("address", cfg.Server.Address).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	// Open streams only end once their subscriptions are closed.
	broker.Close()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.WithError(err).Error("server forced to shutdown")
	}
	logrus.Info("server exiting")
}

func planLimits(c config.PlanLimitsConfig) domain.PlanLimits {
	return domain.PlanLimits{
		MaxClients:   c.MaxClients,
		MaxRoutines:  c.MaxRoutines,
		MaxExercises: c.MaxExercises,
	}
}
