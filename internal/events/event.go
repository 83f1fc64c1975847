package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// Routing keys, <entity>.<action>.
const (
	InvitationCreated   = "invitation.created"
	InvitationAccepted  = "invitation.accepted"
	InvitationRejected  = "invitation.rejected"
	NotificationCreated = "notification.created"
	NotificationRead    = "notification.read"
	TrainerUpdated      = "trainer.updated"
	TraineeUpdated      = "trainee.updated"
	RoutineAssigned     = "routine.assigned"
)

// Event tells subscribers that an entity they depend on changed.
type Event struct {
	Type       string               `json:"type"`
	EntityID   string               `json:"entityId"`
	Audience   []primitive.ObjectID `json:"audience"`
	Payload    any                  `json:"payload,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// New builds an event stamped with the current time.
func New(eventType string, entityID primitive.ObjectID, payload any, audience ...primitive.ObjectID) Event {
	return Event{
		Type:       eventType,
		EntityID:   entityID.Hex(),
		Audience:   audience,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// MultiPublisher publishes every event to all publishers and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, event))
	}
	return err
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
