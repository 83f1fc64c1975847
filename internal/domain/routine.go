package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routine is an ordered list of exercises. Trainers build routines and assign
// them to trainees; trainees may also keep routines of their own.
type Routine struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID   `bson:"ownerId" json:"ownerId"`
	OwnerRole   Role                 `bson:"ownerRole" json:"ownerRole"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	ExerciseIDs []primitive.ObjectID `bson:"exerciseIds" json:"exerciseIds"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
