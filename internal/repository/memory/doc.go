// Package memory implements the repository interfaces in process memory.
// It is used by tests and by the "memory" database driver for local runs.
// Every method holds the repository mutex for its whole duration, so each call
// behaves like a single-document atomic operation in MongoDB.
package memory

import "go.mongodb.org/mongo-driver/bson/primitive"

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneData(data map[string]string) map[string]string {
	if data == nil {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
