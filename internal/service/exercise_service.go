package service

import (
	"alcyxob/gym-platform/internal/domain"
	"alcyxob/gym-platform/internal/repository"
	"alcyxob/gym-platform/internal/storage"
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
	ErrMediaNotUploaded     = errors.New("media object was not uploaded")
	ErrMediaKeyMismatch     = errors.New("media key was not issued for this exercise")
	ErrNoMedia              = errors.New("exercise has no media")
)

var validDifficulties = map[string]bool{"": true, "Novice": true, "Medium": true, "Advanced": true}

// ExerciseInput carries the editable fields of an exercise.
type ExerciseInput struct {
	Name             string
	Description      string
	MuscleGroup      string
	ExecutionTechnic string
	Difficulty       string
	VideoURL         string
}

func (in ExerciseInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || !validDifficulties[in.Difficulty] {
		return ErrValidationFailed
	}
	return nil
}

type ExerciseService interface {
	// CreateExercise counts against the trainer's exercise limit.
	CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	// GetExerciseByID is allowed for the owner and for trainees linked to the owner.
	GetExerciseByID(ctx context.Context, userID, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error

	RequestMediaUpload(ctx context.Context, trainerID, exerciseID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)
	ConfirmMedia(ctx context.Context, trainerID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	GetMediaURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error)
}

type exerciseService struct {
	exerciseRepo   repository.ExerciseRepository
	trainerService TrainerService
	traineeService TraineeService
	fileStorage    storage.FileStorage
}

func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	trainerService TrainerService,
	traineeService TraineeService,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo:   exerciseRepo,
		trainerService: trainerService,
		traineeService: traineeService,
		fileStorage:    fileStorage,
	}
}

func (s *exerciseService) CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required to create an exercise")
	}
	// Refuse early so a full library never gets an orphan document.
	if err := s.trainerService.CheckCapacity(ctx, trainerID, domain.ResourceExercises); err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{TrainerID: trainerID}
	applyExerciseInput(exercise, in)

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID

	if _, err := s.trainerService.AddExercise(ctx, trainerID, exerciseID); err != nil {
		// A concurrent create took the last slot.
		if delErr := s.exerciseRepo.Delete(context.WithoutCancel(ctx), exerciseID, trainerID); delErr != nil {
			logrus.WithError(delErr).WithField("exercise", exerciseID.Hex()).Error("failed to remove exercise after refused add")
		}
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

func applyExerciseInput(exercise *domain.Exercise, in ExerciseInput) {
	exercise.Name = strings.TrimSpace(in.Name)
	exercise.Description = in.Description
	exercise.MuscleGroup = in.MuscleGroup
	exercise.ExecutionTechnic = in.ExecutionTechnic
	exercise.Difficulty = in.Difficulty
	exercise.VideoURL = in.VideoURL
}

func (s *exerciseService) getExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) GetExerciseByID(ctx context.Context, userID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(ctx, userID, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) checkReadAccess(ctx context.Context, userID primitive.ObjectID, exercise *domain.Exercise) error {
	if exercise.TrainerID == userID {
		return nil
	}
	trainee, err := s.traineeService.GetTrainee(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrTraineeNotFound) {
			return ErrExerciseAccessDenied
		}
		return err
	}
	if !trainee.HasTrainer(exercise.TrainerID) {
		return ErrExerciseAccessDenied
	}
	return nil
}

func (s *exerciseService) GetExercisesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID cannot be nil")
	}
	return s.exerciseRepo.GetByTrainerID(ctx, trainerID)
}

func (s *exerciseService) UpdateExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if existing.TrainerID != trainerID {
		return nil, ErrExerciseAccessDenied
	}

	applyExerciseInput(existing, in)
	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteExercise removes the exercise, frees its slot on the trainer and drops
// any uploaded media.
func (s *exerciseService) DeleteExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error {
	existing, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	if existing.TrainerID != trainerID {
		return ErrExerciseAccessDenied
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if err := s.trainerService.RemoveExercise(ctx, trainerID, exerciseID); err != nil {
		return err
	}

	if existing.MediaObjectKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, existing.MediaObjectKey); err != nil {
			logrus.WithError(err).WithField("key", existing.MediaObjectKey).Warn("orphaned exercise media")
		}
	}
	return nil
}

func (s *exerciseService) RequestMediaUpload(ctx context.Context, trainerID, exerciseID primitive.ObjectID, contentType string) (string, string, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return "", "", err
	}
	if exercise.TrainerID != trainerID {
		return "", "", ErrExerciseAccessDenied
	}

	objectKey, err := storage.ExerciseMediaKey(trainerID, exerciseID, contentType)
	if err != nil {
		return "", "", err
	}
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// ConfirmMedia attaches an uploaded object to the exercise, replacing any previous one.
func (s *exerciseService) ConfirmMedia(ctx context.Context, trainerID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if exercise.TrainerID != trainerID {
		return nil, ErrExerciseAccessDenied
	}
	if !storage.IsExerciseMediaKey(objectKey, trainerID, exerciseID) {
		return nil, ErrMediaKeyMismatch
	}

	exists, err := s.fileStorage.ObjectExists(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrMediaNotUploaded
	}

	previous := exercise.MediaObjectKey
	exercise.MediaObjectKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}
	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			logrus.WithError(err).WithField("key", previous).Warn("failed to delete replaced exercise media")
		}
	}
	return exercise, nil
}

func (s *exerciseService) GetMediaURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, userID, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.MediaObjectKey == "" {
		return "", ErrNoMedia
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.MediaObjectKey, storage.DefaultPresignedURLExpiry)
}
