package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkurata/teampulse/internal/normalize"
	"github.com/mkurata/teampulse/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate creates the schema if it does not exist
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		window_start TIMESTAMP NOT NULL,
		window_end TIMESTAMP NOT NULL,
		tickets INTEGER NOT NULL DEFAULT 0,
		pull_requests INTEGER NOT NULL DEFAULT 0,
		commits INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS raw_records (
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		source_id TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (run_id, kind, source_id),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_raw_records_run ON raw_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_raw_records_kind ON raw_records(kind);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun persists a collection run and its raw records in one
// transaction
func (s *sqliteStorage) SaveRun(ctx context.Context, run *storage.Run, batch *normalize.RawBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, window_start, window_end, tickets, pull_requests, commits)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.WindowStart, run.WindowEnd, len(batch.Tickets), len(batch.PullRequests), len(batch.Commits))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO raw_records (run_id, kind, source_id, data)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(kind, sourceID string, record interface{}) error {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s: %w", kind, sourceID, err)
		}
		_, err = stmt.ExecContext(ctx, run.ID, kind, sourceID, string(data))
		return err
	}

	for _, t := range batch.Tickets {
		if err := insert("ticket", t.Key, t); err != nil {
			return err
		}
	}
	for _, pr := range batch.PullRequests {
		if err := insert("pull_request", fmt.Sprintf("%s#%d", pr.Repo, pr.Number), pr); err != nil {
			return err
		}
	}
	for _, c := range batch.Commits {
		if err := insert("commit", c.Sha, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns recent runs, newest first
func (s *sqliteStorage) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, window_start, window_end, tickets, pull_requests, commits, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run := &storage.Run{}
		if err := rows.Scan(&run.ID, &run.WindowStart, &run.WindowEnd, &run.Tickets, &run.PRs, &run.Commits, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run, or nil when none exist
func (s *sqliteStorage) LatestRun(ctx context.Context) (*storage.Run, error) {
	run := &storage.Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, window_start, window_end, tickets, pull_requests, commits, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.WindowStart, &run.WindowEnd, &run.Tickets, &run.PRs, &run.Commits, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// LoadBatch reloads the raw records of a run
func (s *sqliteStorage) LoadBatch(ctx context.Context, runID string) (*normalize.RawBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, data FROM raw_records WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batch := &normalize.RawBatch{}
	for rows.Next() {
		var kind, data string
		if err := rows.Scan(&kind, &data); err != nil {
			return nil, err
		}
		if err := decodeInto(batch, kind, data); err != nil {
			return nil, err
		}
	}
	return batch, rows.Err()
}

func decodeInto(batch *normalize.RawBatch, kind, data string) error {
	switch kind {
	case "ticket":
		var t normalize.RawTicket
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return fmt.Errorf("failed to unmarshal ticket: %w", err)
		}
		batch.Tickets = append(batch.Tickets, t)
	case "pull_request":
		var pr normalize.RawPullRequest
		if err := json.Unmarshal([]byte(data), &pr); err != nil {
			return fmt.Errorf("failed to unmarshal pull request: %w", err)
		}
		batch.PullRequests = append(batch.PullRequests, pr)
	case "commit":
		var c normalize.RawCommit
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return fmt.Errorf("failed to unmarshal commit: %w", err)
		}
		batch.Commits = append(batch.Commits, c)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	return nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
