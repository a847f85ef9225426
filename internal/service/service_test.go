package service

import (
	"context"
	"testing"
	"time"

	"github.com/mkurata/teampulse/internal/config"
	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
	"github.com/mkurata/teampulse/internal/normalize"
	"github.com/mkurata/teampulse/internal/storage"
)

// fakeStore keeps runs and batches in memory
type fakeStore struct {
	runs    []*storage.Run
	batches map[string]*normalize.RawBatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{batches: make(map[string]*normalize.RawBatch)}
}

func (f *fakeStore) SaveRun(ctx context.Context, run *storage.Run, batch *normalize.RawBatch) error {
	f.runs = append(f.runs, run)
	f.batches[run.ID] = batch
	return nil
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	return f.runs, nil
}

func (f *fakeStore) LatestRun(ctx context.Context) (*storage.Run, error) {
	if len(f.runs) == 0 {
		return nil, nil
	}
	return f.runs[len(f.runs)-1], nil
}

func (f *fakeStore) LoadBatch(ctx context.Context, runID string) (*normalize.RawBatch, error) {
	batch, ok := f.batches[runID]
	if !ok {
		return nil, apperrors.NewNotFoundError("collection run")
	}
	return batch, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func testReportConfig() *config.ReportConfig {
	return &config.ReportConfig{
		TeamMembers: map[string]string{"alice": "Alice Chen"},
		Statuses: config.StatusesConfig{
			InProgress: []string{"In Progress"},
			Done:       []string{"Done"},
			Active:     []string{"In Progress"},
		},
		WIPLimit: 5,
		Headline: "prs",
	}
}

func seedRun(t *testing.T, store *fakeStore, id string, batch *normalize.RawBatch) {
	t.Helper()
	err := store.SaveRun(context.Background(), &storage.Run{
		ID:        id,
		CreatedAt: time.Now(),
	}, batch)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
}

func TestPerformanceRangeMondayAlignedWeeks(t *testing.T) {
	store := newFakeStore()
	seedRun(t, store, "run-1", &normalize.RawBatch{
		Commits: []normalize.RawCommit{
			{Repo: "acme/api", Sha: "abc123", Author: "alice", Message: "fix", AuthoredAt: "2025-07-02T10:00:00Z"},
		},
	})
	svc := New(store, testReportConfig())

	// July 1 2025 is a Tuesday; the covering weeks start on June 30.
	win := domain.TimeWindow{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	series, engineers, err := svc.PerformanceRange(context.Background(), win, "")
	if err != nil {
		t.Fatalf("PerformanceRange: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series = %d windows, want 2", len(series))
	}
	wantStart := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if !series[0].Start.Equal(wantStart) {
		t.Errorf("series[0].Start = %v, want %v", series[0].Start, wantStart)
	}
	if len(engineers) != 1 || engineers[0].Name != "Alice Chen" {
		t.Fatalf("engineers = %+v, want Alice Chen", engineers)
	}
	if engineers[0].Weeks[0].Commits != 1 {
		t.Errorf("week 0 Commits = %d, want 1", engineers[0].Weeks[0].Commits)
	}
}

func TestPerformanceRangeNoRuns(t *testing.T) {
	svc := New(newFakeStore(), testReportConfig())
	win := domain.TimeWindow{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	_, _, err := svc.PerformanceRange(context.Background(), win, "")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestReportUsesLatestRun(t *testing.T) {
	store := newFakeStore()
	seedRun(t, store, "run-1", &normalize.RawBatch{})
	seedRun(t, store, "run-2", &normalize.RawBatch{
		Commits: []normalize.RawCommit{
			{Repo: "acme/api", Sha: "def456", Author: "alice", Message: "feat", AuthoredAt: "2025-07-02T10:00:00Z"},
		},
	})
	svc := New(store, testReportConfig())

	win := domain.TimeWindow{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	summary, err := svc.Report(context.Background(), win, "", time.Now())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if summary.TotalCommits != 1 {
		t.Errorf("TotalCommits = %d, want 1 from the latest run", summary.TotalCommits)
	}
	if _, ok := summary.Contributors["Alice Chen"]; !ok {
		t.Errorf("missing Alice Chen in %v", summary.Contributors)
	}
}
