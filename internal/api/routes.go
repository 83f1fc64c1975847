package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	JWTSecret string

	AuthService         service.AuthService
	TrainerService      service.TrainerService
	TraineeService      service.TraineeService
	InvitationService   service.InvitationService
	NotificationService service.NotificationService
	ExerciseService     service.ExerciseService
	RoutineService      service.RoutineService

	Subscriber EventSubscriber
	Metrics    *metrics.Manager
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	authHandler := NewAuthHandler(deps.AuthService)
	trainerHandler := NewTrainerHandler(deps.TrainerService)
	traineeHandler := NewTraineeHandler(deps.TraineeService)
	invitationHandler := NewInvitationHandler(deps.InvitationService)
	notificationHandler := NewNotificationHandler(deps.NotificationService, deps.Subscriber, deps.Metrics)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService)
	routineHandler := NewRoutineHandler(deps.RoutineService)

	router.Use(deps.Metrics.GinMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.JWTSecret))
	{
		protected.GET("/me", authHandler.Me)

		// --- Invitation Routes (both participants) ---
		invitationGroup := protected.Group("/invitations")
		{
			invitationGroup.GET("/:id", invitationHandler.Get)
			invitationGroup.POST("/:id/accept", RoleMiddleware(domain.RoleTrainee), invitationHandler.Accept)
			invitationGroup.POST("/:id/reject", RoleMiddleware(domain.RoleTrainee), invitationHandler.Reject)
		}

		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", notificationHandler.List)
			notificationGroup.GET("/unread-count", notificationHandler.UnreadCount)
			notificationGroup.GET("/stream", notificationHandler.Stream)
			notificationGroup.PATCH("/:id/read", notificationHandler.MarkRead)
			notificationGroup.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// --- Exercise Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleTrainer), exerciseHandler.CreateExercise)
			exerciseGroup.GET("", RoleMiddleware(domain.RoleTrainer), exerciseHandler.GetTrainerExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:id", RoleMiddleware(domain.RoleTrainer), exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", RoleMiddleware(domain.RoleTrainer), exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/media/upload-url", RoleMiddleware(domain.RoleTrainer), exerciseHandler.RequestMediaUpload)
			exerciseGroup.POST("/:id/media/confirm", RoleMiddleware(domain.RoleTrainer), exerciseHandler.ConfirmMedia)
			exerciseGroup.GET("/:id/media", exerciseHandler.GetMedia)
		}

		routineGroup := protected.Group("/routines")
		{
			routineGroup.POST("", routineHandler.CreateRoutine)
			routineGroup.GET("", routineHandler.ListOwn)
			routineGroup.GET("/:id", routineHandler.GetRoutine)
			routineGroup.DELETE("/:id", routineHandler.DeleteRoutine)
			routineGroup.POST("/:id/assign", RoleMiddleware(domain.RoleTrainer), routineHandler.AssignRoutine)
		}

		// --- Trainer Specific Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerApiGroup.GET("/me", trainerHandler.GetProfile)
			trainerApiGroup.GET("/limits", trainerHandler.GetLimits)
			trainerApiGroup.PUT("/plan", trainerHandler.SetPlan)
			trainerApiGroup.PUT("/active", trainerHandler.SetActive)
			trainerApiGroup.GET("/trainees", trainerHandler.GetTrainees)
			trainerApiGroup.DELETE("/trainees/:traineeId", trainerHandler.UnlinkTrainee)
			trainerApiGroup.POST("/invitations", invitationHandler.Create)
			trainerApiGroup.GET("/invitations", invitationHandler.ListSent)
		}

		// --- Trainee Specific Routes ---
		traineeApiGroup := protected.Group("/trainee")
		traineeApiGroup.Use(RoleMiddleware(domain.RoleTrainee))
		{
			traineeApiGroup.GET("/me", traineeHandler.GetProfile)
			traineeApiGroup.PATCH("/goal", traineeHandler.SetGoal)
			traineeApiGroup.GET("/trainers", traineeHandler.GetTrainers)
			traineeApiGroup.GET("/invitations", invitationHandler.ListReceived)
			traineeApiGroup.GET("/routines", routineHandler.ListAssigned)
		}
	}
}
