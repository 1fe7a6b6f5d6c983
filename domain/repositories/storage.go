package repositories

import (
	"context"

	"github.com/lakical/speechbot/domain/entities"
)

// UsageRepository defines durable access to per-user usage records.
// Implementations return (nil, nil) when no record exists.
type UsageRepository interface {
	FindOne(ctx context.Context, userID int64) (*entities.UsageRecord, error)
	Upsert(ctx context.Context, record *entities.UsageRecord) error
	Delete(ctx context.Context, userID int64) error
	FindAll(ctx context.Context) ([]*entities.UsageRecord, error)
}

// ActionUsageRepository defines durable access to action usage
// counters keyed by the chat|message|action composite key.
type ActionUsageRepository interface {
	FindOne(ctx context.Context, key string) (*entities.ActionUsageRecord, error)
	Upsert(ctx context.Context, record *entities.ActionUsageRecord) error
}
