package storage

import (
	"context"

	"chatbot/internal/models"
)

// Storage defines the usage journal. It records one row per completion
// exchange and never stores message text.
type Storage interface {
	// RecordExchange appends a usage record
	RecordExchange(ctx context.Context, exchange models.Exchange) error

	// UserStats aggregates all exchanges of a user. Unknown users yield zero stats.
	UserStats(ctx context.Context, userID int64) (models.UsageStats, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
