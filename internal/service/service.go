// Package service orchestrates the collect and report pipelines on top
// of the storage layer. The CLI and the HTTP API both drive it.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkurata/teampulse/internal/aggregate"
	"github.com/mkurata/teampulse/internal/config"
	"github.com/mkurata/teampulse/internal/delivery"
	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
	"github.com/mkurata/teampulse/internal/fetch"
	"github.com/mkurata/teampulse/internal/flow"
	"github.com/mkurata/teampulse/internal/identity"
	"github.com/mkurata/teampulse/internal/normalize"
	"github.com/mkurata/teampulse/internal/storage"
	"github.com/mkurata/teampulse/internal/window"
)

// Service runs collection and report pipelines
type Service struct {
	store storage.Storage
	cfg   *config.ReportConfig
}

// New creates a service
func New(store storage.Storage, cfg *config.ReportConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// Collect fetches all configured sources for the window and persists
// the raw records as a new run. Either fetcher may be nil when its
// source is not configured.
func (s *Service) Collect(ctx context.Context, github fetch.GitHubFetcher, tickets fetch.TicketFetcher, win domain.TimeWindow, onProgress fetch.ProgressCallback) (*storage.Run, error) {
	batch := &normalize.RawBatch{}

	if github != nil && len(s.cfg.Repositories) > 0 {
		ghBatch, err := github.FetchRepositories(ctx, s.cfg.GitHubOrg, s.cfg.Repositories, win, onProgress)
		if err != nil {
			return nil, err
		}
		batch.PullRequests = ghBatch.PullRequests
		batch.Commits = ghBatch.Commits
	}

	if tickets != nil {
		for _, project := range s.cfg.JiraProjects {
			fetched, err := tickets.FetchProject(ctx, project, win)
			if err != nil {
				return nil, err
			}
			batch.Tickets = append(batch.Tickets, fetched...)
		}
	}

	run := &storage.Run{
		ID:          uuid.New().String(),
		WindowStart: win.Start,
		WindowEnd:   win.End,
		Tickets:     len(batch.Tickets),
		PRs:         len(batch.PullRequests),
		Commits:     len(batch.Commits),
		CreatedAt:   time.Now(),
	}
	if err := s.store.SaveRun(ctx, run, batch); err != nil {
		return nil, err
	}
	return run, nil
}

// Runs lists recent collection runs
func (s *Service) Runs(ctx context.Context, limit int) ([]*storage.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

// Report produces the full summary for a window from stored records.
// An empty runID selects the latest run.
func (s *Service) Report(ctx context.Context, win domain.TimeWindow, runID string, asOf time.Time) (*domain.ReportSummary, error) {
	records, skipped, err := s.loadRecords(ctx, runID, win)
	if err != nil {
		return nil, err
	}
	agg := aggregate.New(s.aggregateOptions(asOf))
	return agg.Summarize(win, records, skipped), nil
}

// Performance produces the weekly engineer breakdown for a quarter
func (s *Service) Performance(ctx context.Context, year, quarter int, runID string) (domain.WeeklySeries, []*aggregate.EngineerWeekly, error) {
	series, err := window.QuarterWeeks(year, quarter)
	if err != nil {
		return nil, nil, err
	}
	win, err := window.FromQuarter(year, quarter)
	if err != nil {
		return nil, nil, err
	}

	records, _, err := s.loadRecords(ctx, runID, win)
	if err != nil {
		return nil, nil, err
	}
	agg := aggregate.New(s.aggregateOptions(time.Time{}))
	return series, agg.WeeklyBreakdown(series, records), nil
}

// PerformanceRange produces the weekly engineer breakdown for an
// arbitrary window, sliced into Monday-aligned weeks.
func (s *Service) PerformanceRange(ctx context.Context, win domain.TimeWindow, runID string) (domain.WeeklySeries, []*aggregate.EngineerWeekly, error) {
	series := window.WeeklyRanges(win)
	records, _, err := s.loadRecords(ctx, runID, win)
	if err != nil {
		return nil, nil, err
	}
	agg := aggregate.New(s.aggregateOptions(time.Time{}))
	return series, agg.WeeklyBreakdown(series, records), nil
}

// loadRecords resolves the run, reloads its raw batch, and normalizes
// it, keeping only records inside the window.
func (s *Service) loadRecords(ctx context.Context, runID string, win domain.TimeWindow) ([]*domain.Record, int, error) {
	if runID == "" {
		latest, err := s.store.LatestRun(ctx)
		if err != nil {
			return nil, 0, err
		}
		if latest == nil {
			return nil, 0, apperrors.NewNotFoundError("collection run")
		}
		runID = latest.ID
	}

	batch, err := s.store.LoadBatch(ctx, runID)
	if err != nil {
		return nil, 0, err
	}

	result := normalize.Batch(*batch)
	var inWindow []*domain.Record
	for _, rec := range result.Records {
		// Tickets stay in scope while they see activity inside the
		// window even when created before it
		if win.Contains(rec.CreatedAt) || (rec.Kind == domain.SourceTicket && win.Contains(rec.UpdatedAt)) {
			inWindow = append(inWindow, rec)
		}
	}
	return inWindow, result.Skipped, nil
}

func (s *Service) aggregateOptions(asOf time.Time) aggregate.Options {
	bots := identity.NewBotFilter(s.cfg.Bots.Patterns, s.cfg.Bots.Exclude)
	return aggregate.Options{
		Rules:    s.cfg.Rules(),
		Bots:     bots,
		Resolver: identity.NewResolver(s.cfg.TeamMembers, s.cfg.DropUnmapped),
		Flow:     flow.NewEngine(s.cfg.FlowConfig()),
		Delivery: delivery.NewEngine(s.cfg.DeliveryEngineConfig(), bots),
		Headline: s.cfg.HeadlineMetric(),
		AsOf:     asOf,
	}
}
