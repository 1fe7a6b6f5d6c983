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

// UsageRepository persists per-user usage records in the "users"
// collection.
type UsageRepository struct {
	collection *mongo.Collection
}

// NewUsageRepository creates a MongoDB usage repository
func NewUsageRepository(db *mongo.Database) repositories.UsageRepository {
	return &UsageRepository{
		collection: db.Collection("users"),
	}
}

// FindOne implements repositories.UsageRepository
func (r *UsageRepository) FindOne(ctx context.Context, userID int64) (*entities.UsageRecord, error) {
	var record entities.UsageRecord
	err := r.collection.FindOne(ctx, bson.M{"uid": userID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No record for this user
		}
		return nil, fmt.Errorf("failed to load usage record for user %d: %w", userID, err)
	}
	return &record, nil
}

// Upsert implements repositories.UsageRepository
func (r *UsageRepository) Upsert(ctx context.Context, record *entities.UsageRecord) error {
	if record == nil {
		return errors.New("usage record cannot be nil")
	}

	update := bson.M{
		"$set": bson.M{
			"uid":          record.UserID,
			"count":        record.Count,
			"window_start": record.WindowStart,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"uid": record.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert usage record for user %d: %w", record.UserID, err)
	}
	return nil
}

// Delete implements repositories.UsageRepository
func (r *UsageRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"uid": userID}); err != nil {
		return fmt.Errorf("failed to delete usage record for user %d: %w", userID, err)
	}
	return nil
}

// FindAll implements repositories.UsageRepository
func (r *UsageRepository) FindAll(ctx context.Context) ([]*entities.UsageRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*entities.UsageRecord
	for cursor.Next(ctx) {
		var record entities.UsageRecord
		if err := cursor.Decode(&record); err != nil {
			continue // Skip malformed documents
		}
		records = append(records, &record)
	}
	if err := cursor.Err(); err != nil {
		return records, fmt.Errorf("cursor error while listing usage records: %w", err)
	}
	return records, nil
}
