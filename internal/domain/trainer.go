package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trainer is the trainer-side aggregate. Its ID is the owning user's ID.
type Trainer struct {
	ID                 primitive.ObjectID   `bson:"_id" json:"id"`
	GymID              string               `bson:"gymId,omitempty" json:"gymId,omitempty"`
	Active             bool                 `bson:"active" json:"active"`
	AssignedTraineeIDs []primitive.ObjectID `bson:"assignedTraineeIds" json:"assignedTraineeIds"`
	CreatedRoutineIDs  []primitive.ObjectID `bson:"createdRoutineIds" json:"createdRoutineIds"`
	CreatedExerciseIDs []primitive.ObjectID `bson:"createdExerciseIds" json:"createdExerciseIds"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasTrainee reports whether traineeID is in the assigned list.
func (t *Trainer) HasTrainee(traineeID primitive.ObjectID) bool {
	return ContainsID(t.AssignedTraineeIDs, traineeID)
}

// Trainee is the trainee-side aggregate. Its ID is the owning user's ID.
type Trainee struct {
	ID                 primitive.ObjectID   `bson:"_id" json:"id"`
	Goal               string               `bson:"goal,omitempty" json:"goal,omitempty"`
	TrainerIDs         []primitive.ObjectID `bson:"trainerIds" json:"trainerIds"`
	AssignedRoutineIDs []primitive.ObjectID `bson:"assignedRoutineIds" json:"assignedRoutineIds"`
	CreatedRoutineIDs  []primitive.ObjectID `bson:"createdRoutineIds" json:"createdRoutineIds"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (t *Trainee) HasTrainer(trainerID primitive.ObjectID) bool {
	return ContainsID(t.TrainerIDs, trainerID)
}

// ContainsID is a linear membership test over an id list.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without any occurrence of id. The input is not modified.
func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
