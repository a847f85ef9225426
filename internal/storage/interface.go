package storage

import (
	"context"
	"time"

	"github.com/mkurata/teampulse/internal/normalize"
)

// Run describes one completed collection pass. The raw records of a
// run can be replayed through the report pipeline without refetching.
type Run struct {
	ID          string
	WindowStart time.Time
	WindowEnd   time.Time
	Tickets     int
	PRs         int
	Commits     int
	CreatedAt   time.Time
}

// Storage is the abstract interface for the persistence layer.
// Implementations persist raw fetched records only; computed
// summaries are always derived fresh.
type Storage interface {
	// SaveRun persists a collection run and its raw records
	SaveRun(ctx context.Context, run *Run, batch *normalize.RawBatch) error

	// ListRuns returns recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// LatestRun returns the most recent run, or nil when none exist
	LatestRun(ctx context.Context) (*Run, error)

	// LoadBatch reloads the raw records of a run
	LoadBatch(ctx context.Context, runID string) (*normalize.RawBatch, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
