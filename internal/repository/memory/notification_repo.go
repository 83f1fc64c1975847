package memory

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type notificationRepository struct {
	mu            sync.RWMutex
	notifications map[primitive.ObjectID]domain.Notification
	order         []primitive.ObjectID
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{notifications: make(map[primitive.ObjectID]domain.Notification)}
}

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.RecipientID == primitive.NilObjectID || n.Kind == "" {
		return primitive.NilObjectID, errors.New("notification requires recipientId and kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(n), nil
}

func (r *notificationRepository) insertLocked(n *domain.Notification) primitive.ObjectID {
	n.ID = primitive.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	stored := *n
	stored.Data = cloneData(n.Data)
	r.notifications[n.ID] = stored
	r.order = append(r.order, n.ID)
	return n.ID
}

func (r *notificationRepository) UpsertForInvitation(_ context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.RecipientID == primitive.NilObjectID || n.InvitationID == nil {
		return primitive.NilObjectID, errors.New("invitation notification requires recipientId and invitationId")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		existing := r.notifications[id]
		if existing.RecipientID == n.RecipientID && existing.InvitationID != nil && *existing.InvitationID == *n.InvitationID {
			n.ID = id
			if n.CreatedAt.IsZero() {
				n.CreatedAt = time.Now().UTC()
			}
			stored := *n
			stored.Data = cloneData(n.Data)
			r.notifications[id] = stored
			return id, nil
		}
	}
	return r.insertLocked(n), nil
}

func (r *notificationRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	n.Data = cloneData(n.Data)
	return &n, nil
}

func (r *notificationRepository) ListByRecipient(_ context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	return r.list(func(n domain.Notification) bool {
		return n.RecipientID == recipientID && (!unreadOnly || !n.Read)
	}), nil
}

func (r *notificationRepository) ListByInvitation(_ context.Context, invitationID primitive.ObjectID) ([]domain.Notification, error) {
	return r.list(func(n domain.Notification) bool {
		return n.InvitationID != nil && *n.InvitationID == invitationID
	}), nil
}

// list returns matching notifications newest first.
func (r *notificationRepository) list(match func(domain.Notification) bool) []domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Notification{}
	for i := len(r.order) - 1; i >= 0; i-- {
		n := r.notifications[r.order[i]]
		if match(n) {
			n.Data = cloneData(n.Data)
			out = append(out, n)
		}
	}
	return out
}

func (r *notificationRepository) CountUnread(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if n.Read {
		return nil
	}
	readAt := at
	n.Read = true
	n.ReadAt = &readAt
	r.notifications[id] = n
	return nil
}

func (r *notificationRepository) MarkAllRead(_ context.Context, recipientID primitive.ObjectID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for id, n := range r.notifications {
		if n.RecipientID != recipientID || n.Read {
			continue
		}
		readAt := at
		n.Read = true
		n.ReadAt = &readAt
		r.notifications[id] = n
		modified++
	}
	return modified, nil
}
