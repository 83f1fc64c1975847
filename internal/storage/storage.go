package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var ErrUnsupportedContentType = errors.New("unsupported media content type")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

var mediaExtensions = map[string]string{
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
}

// ExerciseMediaKey builds a fresh object key for an exercise demo file:
// exercises/<trainer>/<exercise>/<uuid>.<ext>.
func ExerciseMediaKey(trainerID, exerciseID primitive.ObjectID, contentType string) (string, error) {
	ext, ok := mediaExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedContentType
	}
	return fmt.Sprintf("exercises/%s/%s/%s.%s", trainerID.Hex(), exerciseID.Hex(), uuid.NewString(), ext), nil
}

// IsExerciseMediaKey reports whether key was issued for this exercise.
func IsExerciseMediaKey(key string, trainerID, exerciseID primitive.ObjectID) bool {
	prefix := fmt.Sprintf("exercises/%s/%s/", trainerID.Hex(), exerciseID.Hex())
	return strings.HasPrefix(key, prefix) && !strings.Contains(key[len(prefix):], "/")
}
