package mongo

import (
	"alcyxob/gym-platform/internal/repository"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	trainerListFields = []repository.ListField{
		repository.TrainerAssignedTrainees,
		repository.TrainerCreatedRoutines,
		repository.TrainerCreatedExercises,
	}
	traineeListFields = []repository.ListField{
		repository.TraineeTrainers,
		repository.TraineeAssignedRoutines,
		repository.TraineeCreatedRoutines,
	}
)

// checkListField keeps arbitrary field names out of update documents.
func checkListField(field repository.ListField, allowed []repository.ListField) error {
	for _, f := range allowed {
		if f == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", repository.ErrUnknownListField, field)
}

// addToList appends value to the array field of document id in one UpdateOne.
// The filter only matches while value is absent and, when max is not Unlimited,
// while the array has no element at index max-1, so concurrent appends can never
// push the list past max. When nothing matched, the document is read back to tell
// "missing document", "already present" and "list full" apart.
func addToList(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, field repository.ListField, value primitive.ObjectID, max int) (bool, error) {
	name := string(field)
	filter := bson.M{"_id": id, name: bson.M{"$ne": value}}
	if max != repository.Unlimited {
		if max <= 0 {
			return checkListMiss(ctx, collection, id, name, value)
		}
		filter[name+"."+strconv.Itoa(max-1)] = bson.M{"$exists": false}
	}
	update := bson.M{
		"$push": bson.M{name: value},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 1 {
		return true, nil
	}
	return checkListMiss(ctx, collection, id, name, value)
}

func checkListMiss(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, field string, value primitive.ObjectID) (bool, error) {
	err := collection.FindOne(ctx, bson.M{"_id": id, field: value}).Err()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, repository.ErrNotFound
	}
	return false, repository.ErrListFull
}

func removeFromList(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, field repository.ListField, value primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{string(field): value},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// nonNil keeps empty id lists encoded as [] instead of null so $push works on them.
func nonNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
