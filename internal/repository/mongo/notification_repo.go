package mongo

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationCollectionName = "notifications"

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.RecipientID == primitive.NilObjectID || n.Kind == "" {
		return primitive.NilObjectID, errors.New("notification requires recipientId and kind")
	}

	n.ID = primitive.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return primitive.NilObjectID, err
	}
	return n.ID, nil
}

// UpsertForInvitation keys the document on (recipientId, invitationId).
func (r *mongoNotificationRepository) UpsertForInvitation(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.RecipientID == primitive.NilObjectID || n.InvitationID == nil {
		return primitive.NilObjectID, errors.New("invitation notification requires recipientId and invitationId")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"recipientId": n.RecipientID, "invitationId": *n.InvitationID}
	set := bson.M{
		"kind":      n.Kind,
		"title":     n.Title,
		"body":      n.Body,
		"read":      n.Read,
		"data":      n.Data,
		"createdAt": n.CreatedAt,
	}
	update := bson.M{"$set": set}
	if n.Read {
		set["readAt"] = n.CreatedAt
	} else {
		update["$unset"] = bson.M{"readAt": ""}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.Notification
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return primitive.NilObjectID, err
	}
	n.ID = stored.ID
	n.ReadAt = stored.ReadAt
	return stored.ID, nil
}

func (r *mongoNotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	var n domain.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *mongoNotificationRepository) ListByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	filter := bson.M{"recipientId": recipientID}
	if unreadOnly {
		filter["read"] = false
	}
	return r.find(ctx, filter)
}

func (r *mongoNotificationRepository) ListByInvitation(ctx context.Context, invitationID primitive.ObjectID) ([]domain.Notification, error) {
	return r.find(ctx, bson.M{"invitationId": invitationID})
}

func (r *mongoNotificationRepository) find(ctx context.Context, filter bson.M) ([]domain.Notification, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipientId": recipientID, "read": false})
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	// Only unread documents are touched so readAt keeps the first read time.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient with one UpdateMany.
func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID, at time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipientId": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func notificationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "recipientId", Value: 1}, {Key: "invitationId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"invitationId": bson.M{"$exists": true}}),
		},
	}
}
