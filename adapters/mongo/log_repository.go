package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

type LogRepository struct {
	collection *mongo.Collection
}

// NewLogRepository creates a new MongoDB training log store
func NewLogRepository(db *mongo.Database) repositories.TrainingLogStore {
	return &LogRepository{
		collection: db.Collection("training_logs"),
	}
}

// Save implements repositories.TrainingLogStore
func (r *LogRepository) Save(ctx context.Context, log *entities.TrainingLog) error {
	if log == nil {
		return errors.New("training log cannot be nil")
	}
	if err := log.Validate(); err != nil {
		return err
	}

	// Upsert on the session-assigned ID so retried saves stay idempotent.
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": log.ID}, log, opts); err != nil {
		return fmt.Errorf("failed to save training log: %w", err)
	}
	return nil
}

// GetByID implements repositories.TrainingLogStore
func (r *LogRepository) GetByID(ctx context.Context, id string) (*entities.TrainingLog, error) {
	if id == "" {
		return nil, errors.New("training log id cannot be empty")
	}

	var log entities.TrainingLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get training log: %w", err)
	}
	return &log, nil
}

// List implements repositories.TrainingLogStore, newest first
func (r *LogRepository) List(ctx context.Context) ([]*entities.TrainingLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list training logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*entities.TrainingLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode training logs: %w", err)
	}
	return logs, nil
}
