package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatbot/internal/models"
)

func TestJournal_RecordAndStats(t *testing.T) {
	j := NewJournal(0)
	ctx := context.Background()

	if err := j.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize journal: %v", err)
	}

	first := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	records := []models.Exchange{
		{ID: "1", UserID: 1, Outcome: models.OutcomeOK, ReplyChars: 10, CreatedAt: first},
		{ID: "2", UserID: 1, Outcome: models.OutcomeUnavailable, CreatedAt: first.Add(time.Hour)},
		{ID: "3", UserID: 2, Outcome: models.OutcomeOK, ReplyChars: 99, CreatedAt: first},
		{ID: "4", UserID: 1, Outcome: models.OutcomeOK, ReplyChars: 5, CreatedAt: first.Add(30 * time.Minute)},
	}
	for _, r := range records {
		if err := j.RecordExchange(ctx, r); err != nil {
			t.Fatalf("Failed to record exchange: %v", err)
		}
	}

	stats, err := j.UserStats(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}

	if stats.Exchanges != 3 {
		t.Errorf("Expected 3 exchanges, got %d", stats.Exchanges)
	}
	if stats.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.Failures)
	}
	if stats.ReplyChars != 15 {
		t.Errorf("Expected 15 reply chars, got %d", stats.ReplyChars)
	}
	if !stats.LastAt.Equal(first.Add(time.Hour)) {
		t.Errorf("Expected last exchange at %v, got %v", first.Add(time.Hour), stats.LastAt)
	}

	if got := len(j.Exchanges()); got != 4 {
		t.Errorf("Expected 4 stored exchanges, got %d", got)
	}
}

func TestJournal_RecentRecordsAreCapped(t *testing.T) {
	j := NewJournal(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		e := models.Exchange{ID: fmt.Sprint(i), UserID: 1, Outcome: models.OutcomeOK, ReplyChars: 1}
		if err := j.RecordExchange(ctx, e); err != nil {
			t.Fatalf("Failed to record exchange: %v", err)
		}
	}

	recent := j.Exchanges()
	if len(recent) != 3 {
		t.Fatalf("Expected 3 recent exchanges, got %d", len(recent))
	}
	if recent[0].ID != "7" || recent[2].ID != "9" {
		t.Errorf("Expected the newest records 7..9, got %s..%s", recent[0].ID, recent[2].ID)
	}

	// Totals still cover every exchange
	stats, err := j.UserStats(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Exchanges != 10 || stats.ReplyChars != 10 {
		t.Errorf("Expected totals of 10 exchanges and 10 chars, got %+v", stats)
	}
}

func TestJournal_UnknownUser(t *testing.T) {
	j := NewJournal(0)

	stats, err := j.UserStats(context.Background(), 404)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats != (models.UsageStats{}) {
		t.Errorf("Expected zero stats, got %+v", stats)
	}

	if err := j.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}
