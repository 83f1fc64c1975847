package api

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/service"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultKeepAlive = 25 * time.Second

// EventSubscriber is the subscribe side of events.Broker.
type EventSubscriber interface {
	Subscribe(userID primitive.ObjectID) (<-chan events.Event, func())
}

type NotificationHandler struct {
	notificationService service.NotificationService
	subscriber          EventSubscriber
	metrics             *metrics.Manager
	keepAlive           time.Duration
}

func NewNotificationHandler(notificationService service.NotificationService, subscriber EventSubscriber, m *metrics.Manager) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		subscriber:          subscriber,
		metrics:             m,
		keepAlive:           defaultKeepAlive,
	}
}

type NotificationResponse struct {
	ID           string                  `json:"id"`
	Kind         domain.NotificationKind `json:"kind"`
	Title        string                  `json:"title"`
	Body         string                  `json:"body"`
	Read         bool                    `json:"read"`
	InvitationID string                  `json:"invitationId,omitempty"`
	Data         map[string]string       `json:"data,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	ReadAt       *time.Time              `json:"readAt,omitempty"`
}

func MapNotificationToResponse(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.Hex(),
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
	if n.InvitationID != nil {
		resp.InvitationID = n.InvitationID.Hex()
	}
	return resp
}

func MapNotificationsToResponse(list []domain.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(list))
	for i := range list {
		responses[i] = MapNotificationToResponse(&list[i])
	}
	return responses
}

// List godoc
// @Summary List the caller's notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {array} NotificationResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.notificationService.ListForRecipient(c.Request.Context(), userID, c.Query("unread") == "true")
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve notifications.")
		return
	}
	c.JSON(http.StatusOK, MapNotificationsToResponse(list))
}

// UnreadCount godoc
// @Summary Number of unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H "{\"unread\": 3}"
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to count notifications.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 403 {object} gin.H "Notification belongs to another user"
// @Failure 404 {object} gin.H "Not found"
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	notificationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		respondWithServiceError(c, err, "Failed to mark notification as read.")
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark every notification of the caller as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H "{\"marked\": 4}"
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	marked, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to mark notifications as read.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Stream godoc
// @Summary Server-sent change events for the caller
// @Description Emits one SSE message per event addressed to the caller, plus periodic pings.
// @Tags Notifications
// @Produce text/event-stream
// @Security BearerAuth
// @Param access_token query string false "JWT, for clients that cannot set headers"
// @Router /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ch, cancel := h.subscriber.Subscribe(userID)
	defer cancel()

	h.metrics.GaugeStreams.Inc()
	defer h.metrics.GaugeStreams.Dec()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	// headers go out now so clients see the stream open before the first event
	c.Writer.Flush()

	logrus.WithField("user", userID.Hex()).Debug("event stream opened")
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
	logrus.WithField("user", userID.Hex()).Debug("event stream closed")
}
