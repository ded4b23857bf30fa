package repositories

import (
	"context"
	"errors"

	"github.com/muhannadalsrahen/speakright/domain/entities"
)

// ErrLogNotFound is returned when no training log matches the requested ID.
var ErrLogNotFound = errors.New("training log not found")

// TrainingLogStore defines data access methods for training logs.
type TrainingLogStore interface {
	Save(ctx context.Context, log *entities.TrainingLog) error
	GetByID(ctx context.Context, id string) (*entities.TrainingLog, error)
	// List returns all training logs, newest first.
	List(ctx context.Context) ([]*entities.TrainingLog, error)
}
