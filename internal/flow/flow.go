// Package flow computes ticket flow metrics: status-transition cycle
// time, point-in-time WIP, and percentile statistics.
package flow

import (
	"sort"
	"strings"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
)

// Config carries the workflow status sets and WIP threshold. Status
// names are configurable to accommodate custom workflows; matching is
// case-insensitive.
type Config struct {
	InProgressStatuses []string
	DoneStatuses       []string
	ActiveStatuses     []string
	WIPLimit           int
}

// Engine evaluates flow metrics against one workflow configuration
type Engine struct {
	cfg        Config
	inProgress map[string]struct{}
	done       map[string]struct{}
	active     map[string]struct{}
}

// NewEngine builds a flow engine from the configured status sets
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		inProgress: toSet(cfg.InProgressStatuses),
		done:       toSet(cfg.DoneStatuses),
		active:     toSet(cfg.ActiveStatuses),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

func (e *Engine) isInProgress(status string) bool {
	_, ok := e.inProgress[strings.ToLower(status)]
	return ok
}

// IsDone reports whether a status counts as completed work
func (e *Engine) IsDone(status string) bool {
	_, ok := e.done[strings.ToLower(status)]
	return ok
}

// IsActive reports whether a status counts toward WIP
func (e *Engine) IsActive(status string) bool {
	_, ok := e.active[strings.ToLower(status)]
	return ok
}

// CycleTime computes the duration from the first transition into an
// in-progress status to the first done transition strictly after it.
// The second return value is false when either anchor is missing;
// tickets lacking full history are common and never an error.
func (e *Engine) CycleTime(ticket *domain.TicketDetail) (time.Duration, bool) {
	if ticket == nil || len(ticket.StatusHistory) == 0 {
		return 0, false
	}
	var inProgressAt *time.Time
	for _, tr := range ticket.StatusHistory {
		if e.isInProgress(tr.Status) {
			t := tr.EnteredAt
			inProgressAt = &t
			break
		}
	}
	if inProgressAt == nil {
		return 0, false
	}
	for _, tr := range ticket.StatusHistory {
		if e.IsDone(tr.Status) && tr.EnteredAt.After(*inProgressAt) {
			return tr.EnteredAt.Sub(*inProgressAt), true
		}
	}
	return 0, false
}

// StatusAt reconstructs the ticket's status at a given instant from its
// history. With no history, or an asOf before the first transition
// after which nothing is known, the current status is assumed.
func StatusAt(ticket *domain.TicketDetail, asOf time.Time) string {
	if ticket == nil {
		return ""
	}
	if asOf.IsZero() || len(ticket.StatusHistory) == 0 {
		return ticket.Status
	}
	status := ticket.Status
	found := false
	for _, tr := range ticket.StatusHistory {
		if tr.EnteredAt.After(asOf) {
			break
		}
		status = tr.Status
		found = true
	}
	if !found {
		return ticket.Status
	}
	return status
}

// Compute evaluates flow metrics over a set of ticket records belonging
// to one contributor or team. WIP counts tickets active at asOf; pass
// the zero time for "now" semantics using current statuses.
func (e *Engine) Compute(records []*domain.Record, asOf time.Time) *domain.FlowMetricResult {
	result := &domain.FlowMetricResult{}
	for _, rec := range records {
		if rec.Kind != domain.SourceTicket || rec.Ticket == nil {
			continue
		}
		if sample, ok := e.CycleTime(rec.Ticket); ok {
			result.CycleTimeSamples = append(result.CycleTimeSamples, sample)
		} else if e.IsDone(rec.Ticket.Status) {
			result.Excluded++
		}
		if e.IsActive(StatusAt(rec.Ticket, asOf)) {
			result.WIPCount++
		}
	}
	sort.Slice(result.CycleTimeSamples, func(i, j int) bool {
		return result.CycleTimeSamples[i] < result.CycleTimeSamples[j]
	})
	result.Median = Median(result.CycleTimeSamples)
	result.P90 = P90(result.CycleTimeSamples)
	result.OverWIPLimit = e.cfg.WIPLimit > 0 && result.WIPCount > e.cfg.WIPLimit
	return result
}

// Median returns the standard median: the mean of the two middle
// elements for even-sized sample sets.
func Median(samples []time.Duration) time.Duration {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := sortedCopy(samples)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// P90 returns the 90th percentile by the nearest-rank method: the
// element at index ceil(0.9*n)-1 of the sorted samples.
func P90(samples []time.Duration) time.Duration {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := sortedCopy(samples)
	rank := (9*n + 9) / 10 // ceil(0.9*n)
	return sorted[rank-1]
}

func sortedCopy(samples []time.Duration) []time.Duration {
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}
