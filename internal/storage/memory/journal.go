package memory

import (
	"context"
	"sync"

	"chatbot/internal/models"
)

// DefaultRecentLimit is how many raw records a Journal keeps by default
const DefaultRecentLimit = 1000

// Journal is an in-memory implementation of the Storage interface.
// Per-user totals are exact and grow with the number of users; raw records
// are kept only for the most recent exchanges.
type Journal struct {
	mu          sync.RWMutex
	totals      map[int64]models.UsageStats
	recent      []models.Exchange
	recentLimit int
	closed      bool
}

// NewJournal creates an in-memory journal keeping up to recentLimit raw records.
// A non-positive limit selects DefaultRecentLimit.
func NewJournal(recentLimit int) *Journal {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Journal{
		totals:      make(map[int64]models.UsageStats),
		recent:      make([]models.Exchange, 0),
		recentLimit: recentLimit,
	}
}

// Initialize is a no-op for the in-memory journal
func (j *Journal) Initialize(ctx context.Context) error {
	return nil
}

// RecordExchange adds a usage record to the user's totals
func (j *Journal) RecordExchange(ctx context.Context, exchange models.Exchange) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	stats := j.totals[exchange.UserID]
	stats.Exchanges++
	if exchange.Outcome != models.OutcomeOK {
		stats.Failures++
	}
	stats.ReplyChars += exchange.ReplyChars
	if exchange.CreatedAt.After(stats.LastAt) {
		stats.LastAt = exchange.CreatedAt
	}
	j.totals[exchange.UserID] = stats

	j.recent = append(j.recent, exchange)
	if over := len(j.recent) - j.recentLimit; over > 0 {
		j.recent = append(j.recent[:0], j.recent[over:]...)
	}
	return nil
}

// UserStats returns the totals of a user
func (j *Journal) UserStats(ctx context.Context, userID int64) (models.UsageStats, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.totals[userID], nil
}

// Exchanges returns a copy of the most recent raw records, oldest first
func (j *Journal) Exchanges() []models.Exchange {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]models.Exchange, len(j.recent))
	copy(out, j.recent)
	return out
}

// Close marks the journal closed
func (j *Journal) Close() error {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()
	return nil
}
