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
)

const traineeCollectionName = "trainees"

type mongoTraineeRepository struct {
	collection *mongo.Collection
}

// NewMongoTraineeRepository creates a Trainee aggregate repository backed by MongoDB.
func NewMongoTraineeRepository(db *mongo.Database) repository.TraineeRepository {
	return &mongoTraineeRepository{
		collection: db.Collection(traineeCollectionName),
	}
}

func (r *mongoTraineeRepository) Create(ctx context.Context, trainee *domain.Trainee) error {
	if trainee.ID == primitive.NilObjectID {
		return errors.New("trainee aggregate requires the owning user ID")
	}
	trainee.TrainerIDs = nonNil(trainee.TrainerIDs)
	trainee.AssignedRoutineIDs = nonNil(trainee.AssignedRoutineIDs)
	trainee.CreatedRoutineIDs = nonNil(trainee.CreatedRoutineIDs)
	trainee.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, trainee); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoTraineeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainee, error) {
	var trainee domain.Trainee
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trainee)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trainee, nil
}

func (r *mongoTraineeRepository) SetGoal(ctx context.Context, id primitive.ObjectID, goal string) error {
	update := bson.M{"$set": bson.M{"goal": goal, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTraineeRepository) AddToList(ctx context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) (bool, error) {
	if err := checkListField(field, traineeListFields); err != nil {
		return false, err
	}
	return addToList(ctx, r.collection, traineeID, field, value, repository.Unlimited)
}

func (r *mongoTraineeRepository) RemoveFromList(ctx context.Context, traineeID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	if err := checkListField(field, traineeListFields); err != nil {
		return err
	}
	return removeFromList(ctx, r.collection, traineeID, field, value)
}
