package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/service"
	"alcyxob/gym-platform/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},

	{service.ErrValidationFailed, http.StatusBadRequest},
	{service.ErrSelfInvitation, http.StatusBadRequest},
	{service.ErrMessageTooLong, http.StatusBadRequest},
	{service.ErrGoalTooLong, http.StatusBadRequest},
	{service.ErrUnknownPlan, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrWeakPassword, http.StatusBadRequest},
	{service.ErrMediaKeyMismatch, http.StatusBadRequest},
	{service.ErrMediaNotUploaded, http.StatusBadRequest},
	{storage.ErrUnsupportedContentType, http.StatusBadRequest},

	{service.ErrInvitationAccessDenied, http.StatusForbidden},
	{service.ErrExerciseAccessDenied, http.StatusForbidden},
	{service.ErrRoutineAccessDenied, http.StatusForbidden},
	{service.ErrNotificationAccessDenied, http.StatusForbidden},
	{service.ErrNotTrainer, http.StatusForbidden},
	{service.ErrNotTrainee, http.StatusForbidden},

	{service.ErrInvitationNotFound, http.StatusNotFound},
	{service.ErrTrainerNotFound, http.StatusNotFound},
	{service.ErrTraineeNotFound, http.StatusNotFound},
	{service.ErrExerciseNotFound, http.StatusNotFound},
	{service.ErrRoutineNotFound, http.StatusNotFound},
	{service.ErrNotificationNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrNoMedia, http.StatusNotFound},

	{domain.ErrInvalidTransition, http.StatusConflict},
	{service.ErrInvitationExists, http.StatusConflict},
	{service.ErrAlreadyLinked, http.StatusConflict},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrTrainerInactive, http.StatusConflict},
	{service.ErrTraineeNotLinked, http.StatusConflict},
}

// respondWithServiceError maps a service error to a status code. Plan limits
// get 402 with details so clients can offer an upgrade. Unknown errors are
// logged and hidden behind fallback.
func respondWithServiceError(c *gin.Context, err error, fallback string) {
	var capErr *domain.CapacityError
	if errors.As(err, &capErr) {
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
			"error":    capErr.Error(),
			"code":     "capacity_exceeded",
			"resource": capErr.Resource,
			"current":  capErr.Current,
			"max":      capErr.Max,
		})
		return
	}

	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.err) {
			abortWithError(c, candidate.status, err.Error())
			return
		}
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error(fallback)
	abortWithError(c, http.StatusInternalServerError, fallback)
}
