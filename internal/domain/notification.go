package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationKind string

const (
	NotificationInvitationPending  NotificationKind = "invitation_pending"
	NotificationInvitationAccepted NotificationKind = "invitation_accepted"
	NotificationInvitationRejected NotificationKind = "invitation_rejected"
	NotificationRoutineAssigned    NotificationKind = "routine_assigned"
	NotificationTrainerUnlinked    NotificationKind = "trainer_unlinked"
)

// Notification is a message addressed to one user. Only Read/ReadAt change after creation,
// except invitation notifications which are replaced in place as the invitation progresses.
type Notification struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID  primitive.ObjectID  `bson:"recipientId" json:"recipientId"`
	Kind         NotificationKind    `bson:"kind" json:"kind"`
	Title        string              `bson:"title" json:"title"`
	Body         string              `bson:"body" json:"body"`
	Read         bool                `bson:"read" json:"read"`
	InvitationID *primitive.ObjectID `bson:"invitationId,omitempty" json:"invitationId,omitempty"`
	Data         map[string]string   `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	ReadAt       *time.Time          `bson:"readAt,omitempty" json:"readAt,omitempty"`
}
