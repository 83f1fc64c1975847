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

const trainerCollectionName = "trainers"

type mongoTrainerRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerRepository creates a Trainer aggregate repository backed by MongoDB.
func NewMongoTrainerRepository(db *mongo.Database) repository.TrainerRepository {
	return &mongoTrainerRepository{
		collection: db.Collection(trainerCollectionName),
	}
}

func (r *mongoTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) error {
	if trainer.ID == primitive.NilObjectID {
		return errors.New("trainer aggregate requires the owning user ID")
	}
	trainer.AssignedTraineeIDs = nonNil(trainer.AssignedTraineeIDs)
	trainer.CreatedRoutineIDs = nonNil(trainer.CreatedRoutineIDs)
	trainer.CreatedExerciseIDs = nonNil(trainer.CreatedExerciseIDs)
	trainer.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, trainer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoTrainerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	var trainer domain.Trainer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trainer, nil
}

func (r *mongoTrainerRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	update := bson.M{"$set": bson.M{"active": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainerRepository) AddToList(ctx context.Context, trainerID primitive.ObjectID, field repository.ListField, value primitive.ObjectID, max int) (bool, error) {
	if err := checkListField(field, trainerListFields); err != nil {
		return false, err
	}
	return addToList(ctx, r.collection, trainerID, field, value, max)
}

func (r *mongoTrainerRepository) RemoveFromList(ctx context.Context, trainerID primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	if err := checkListField(field, trainerListFields); err != nil {
		return err
	}
	return removeFromList(ctx, r.collection, trainerID, field, value)
}
