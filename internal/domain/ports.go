package domain

import (
	"context"
	"time"
)

// ReviewSource yields a prepared review table (Year/Month/Day derived).
type ReviewSource interface {
	LoadReviews(ctx context.Context) (ReviewTable, error)
}

// FeedClient fetches the raw CSV payload.
type FeedClient interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// ReviewRepository stores feed snapshots. Each ingest run writes its records
// under its own run id; FinishRun with status ok publishes that run as the
// snapshot LoadReviews reads and drops the previous one.
type ReviewRepository interface {
	// Write paths
	StartRun(ctx context.Context, startedAt time.Time) (int64, error)
	InsertReviews(ctx context.Context, runID int64, offset int, rs []Review) error
	FinishRun(ctx context.Context, run IngestRun) error

	// Read paths
	LoadReviews(ctx context.Context) (ReviewTable, error)
}

// SessionStore keeps one filter selection per dashboard session.
type SessionStore interface {
	Get(ctx context.Context, id string, dst *Selection) (bool, error)
	Save(ctx context.Context, id string, sel Selection, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type IngestRun struct {
	ID        int64
	StartedAt time.Time
	Rows      int
	Status    string // ok|failed
	Error     string
}
