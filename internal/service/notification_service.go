package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/events"
	"alcyxob/gym-platform/internal/metrics"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrNotificationAccessDenied = errors.New("notification belongs to another user")
)

type NotificationService interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	// UpsertForInvitation keeps a single notification per (recipient, invitation).
	UpsertForInvitation(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error)
	ListByInvitation(ctx context.Context, invitationID primitive.ObjectID) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        events.Publisher
	metrics          *metrics.Manager
}

func NewNotificationService(notificationRepo repository.NotificationRepository, publisher events.Publisher, m *metrics.Manager) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		metrics:          m,
	}
}

func (s *notificationService) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n.RecipientID == primitive.NilObjectID || n.Kind == "" {
		return nil, errors.New("notification recipient and kind are required")
	}
	if _, err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.created(ctx, n)
	return n, nil
}

func (s *notificationService) UpsertForInvitation(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n.RecipientID == primitive.NilObjectID || n.InvitationID == nil {
		return nil, errors.New("notification recipient and invitation are required")
	}
	if n.Read && n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
	if _, err := s.notificationRepo.UpsertForInvitation(ctx, n); err != nil {
		return nil, err
	}
	s.created(ctx, n)
	return n, nil
}

func (s *notificationService) created(ctx context.Context, n *domain.Notification) {
	s.metrics.CounterNotifications.WithLabelValues(string(n.Kind)).Inc()
	publish(ctx, s.publisher, events.New(events.NotificationCreated, n.ID, n, n.RecipientID))
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	if recipientID == primitive.NilObjectID {
		return nil, errors.New("recipient ID is required")
	}
	return s.notificationRepo.ListByRecipient(ctx, recipientID, unreadOnly)
}

func (s *notificationService) ListByInvitation(ctx context.Context, invitationID primitive.ObjectID) ([]domain.Notification, error) {
	return s.notificationRepo.ListByInvitation(ctx, invitationID)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, recipientID)
}

// MarkRead flips one notification to read. Only its recipient may do that.
func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID primitive.ObjectID) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.RecipientID != recipientID {
		return ErrNotificationAccessDenied
	}
	if n.Read {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, notificationID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	publish(ctx, s.publisher, events.New(events.NotificationRead, notificationID, nil, recipientID))
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	modified, err := s.notificationRepo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if modified > 0 {
		publish(ctx, s.publisher, events.New(events.NotificationRead, recipientID, map[string]int64{"marked": modified}, recipientID))
	}
	return modified, nil
}
