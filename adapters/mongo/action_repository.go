package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lakical/speechbot/domain/entities"
	"github.com/lakical/speechbot/domain/repositories"
)

// ActionUsageRepository persists action counters in the "action_usage"
// collection, keyed by the chat|message|action composite string.
type ActionUsageRepository struct {
	collection *mongo.Collection
}

// NewActionUsageRepository creates a MongoDB action usage repository
func NewActionUsageRepository(db *mongo.Database) repositories.ActionUsageRepository {
	return &ActionUsageRepository{
		collection: db.Collection("action_usage"),
	}
}

// FindOne implements repositories.ActionUsageRepository
func (r *ActionUsageRepository) FindOne(ctx context.Context, key string) (*entities.ActionUsageRecord, error) {
	var record entities.ActionUsageRecord
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load action usage for key %q: %w", key, err)
	}
	return &record, nil
}

// Upsert implements repositories.ActionUsageRepository
func (r *ActionUsageRepository) Upsert(ctx context.Context, record *entities.ActionUsageRecord) error {
	if record == nil {
		return errors.New("action usage record cannot be nil")
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"key": record.Key},
		bson.M{"$set": bson.M{"key": record.Key, "count": record.Count}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert action usage for key %q: %w", record.Key, err)
	}
	return nil
}
