package usecase

import (
	"context"
	"fmt"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

// TrainingService handles training log history
type TrainingService struct {
	store repositories.TrainingLogStore
}

// NewTrainingService creates a new training service
func NewTrainingService(store repositories.TrainingLogStore) *TrainingService {
	return &TrainingService{store: store}
}

// Save persists a finished session's training log.
func (s *TrainingService) Save(ctx context.Context, log *entities.TrainingLog) error {
	if log == nil {
		return fmt.Errorf("training log is required")
	}
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid training log: %w", err)
	}
	return s.store.Save(ctx, log)
}

// List returns all training logs, newest first.
func (s *TrainingService) List(ctx context.Context) ([]*entities.TrainingLog, error) {
	return s.store.List(ctx)
}

// GetByID returns one training log by its identifier.
func (s *TrainingService) GetByID(ctx context.Context, id string) (*entities.TrainingLog, error) {
	if id == "" {
		return nil, repositories.ErrLogNotFound
	}
	return s.store.GetByID(ctx, id)
}
