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

const invitationCollectionName = "invitations"

type mongoInvitationRepository struct {
	collection *mongo.Collection
}

func NewMongoInvitationRepository(db *mongo.Database) repository.InvitationRepository {
	return &mongoInvitationRepository{
		collection: db.Collection(invitationCollectionName),
	}
}

func (r *mongoInvitationRepository) Create(ctx context.Context, invitation *domain.Invitation) (primitive.ObjectID, error) {
	if invitation.TrainerID == primitive.NilObjectID || invitation.TraineeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("invitation requires trainerId and traineeId")
	}

	invitation.ID = primitive.NewObjectID()
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now().UTC()
	}
	if invitation.Status == "" {
		invitation.Status = domain.InvitationPending
	}

	if _, err := r.collection.InsertOne(ctx, invitation); err != nil {
		return primitive.NilObjectID, err
	}
	return invitation.ID, nil
}

func (r *mongoInvitationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invitation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

// List returns the invitations matching filter, newest first.
func (r *mongoInvitationRepository) List(ctx context.Context, filter repository.InvitationFilter) ([]domain.Invitation, error) {
	query := bson.M{}
	if filter.TrainerID != nil {
		query["trainerId"] = *filter.TrainerID
	}
	if filter.TraineeID != nil {
		query["traineeId"] = *filter.TraineeID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	invitations := []domain.Invitation{}
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// UpdateStatus is a compare-and-set on the status field: the filter includes the
// expected current status, so two concurrent responses cannot both win.
func (r *mongoInvitationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.InvitationStatus, respondedAt time.Time) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "respondedAt": respondedAt}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
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
	return repository.ErrStatusMismatch
}

func invitationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "traineeId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			// one pending invitation per pair
			Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "traineeId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.InvitationPending}),
		},
	}
}
