package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"chatbot/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// RecordExchange inserts a usage record
func (db *ClickHouseDB) RecordExchange(ctx context.Context, e models.Exchange) error {
	err := db.conn.Exec(ctx, `INSERT INTO exchanges
		(id, user_id, provider, model, outcome, prompt_chars, reply_chars, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Provider, e.Model, e.Outcome,
		int64(e.PromptChars), int64(e.ReplyChars), e.Latency.Milliseconds(), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// UserStats aggregates the exchanges of a user
func (db *ClickHouseDB) UserStats(ctx context.Context, userID int64) (models.UsageStats, error) {
	var (
		total      uint64
		failures   uint64
		replyChars int64
		lastAt     time.Time
	)

	row := db.conn.QueryRow(ctx, `SELECT
			count(),
			countIf(outcome != 'ok'),
			sum(reply_chars),
			max(created_at)
		FROM exchanges WHERE user_id = ?`, userID)
	if err := row.Scan(&total, &failures, &replyChars, &lastAt); err != nil {
		return models.UsageStats{}, fmt.Errorf("failed to get user stats: %w", err)
	}

	// max() over an empty set yields the epoch
	if total == 0 {
		return models.UsageStats{}, nil
	}

	return models.UsageStats{
		Exchanges:  int(total),
		Failures:   int(failures),
		ReplyChars: int(replyChars),
		LastAt:     lastAt.UTC(),
	}, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
