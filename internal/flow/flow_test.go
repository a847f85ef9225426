package flow

import (
	"testing"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
)

var testConfig = Config{
	InProgressStatuses: []string{"In Progress"},
	DoneStatuses:       []string{"Done", "Closed"},
	ActiveStatuses:     []string{"In Progress", "Review"},
	WIPLimit:           5,
}

func ts(day, hour int) time.Time {
	return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
}

func ticketWithHistory(status string, transitions ...domain.StatusTransition) *domain.TicketDetail {
	return &domain.TicketDetail{
		Key:           "ENG-1",
		Status:        status,
		StatusHistory: transitions,
	}
}

func TestCycleTime(t *testing.T) {
	e := NewEngine(testConfig)

	tests := []struct {
		name   string
		ticket *domain.TicketDetail
		want   time.Duration
		ok     bool
	}{
		{
			name: "simple in-progress to done",
			ticket: ticketWithHistory("Done",
				domain.StatusTransition{Status: "To Do", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(2, 9)},
				domain.StatusTransition{Status: "Done", EnteredAt: ts(4, 9)},
			),
			want: 48 * time.Hour,
			ok:   true,
		},
		{
			name: "reopened ticket anchors on first in-progress",
			ticket: ticketWithHistory("Done",
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "To Do", EnteredAt: ts(2, 9)},
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(3, 9)},
				domain.StatusTransition{Status: "Done", EnteredAt: ts(5, 9)},
			),
			want: 96 * time.Hour,
			ok:   true,
		},
		{
			name: "done before in-progress does not count",
			ticket: ticketWithHistory("In Progress",
				domain.StatusTransition{Status: "Done", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(2, 9)},
			),
			ok: false,
		},
		{
			name: "never in progress",
			ticket: ticketWithHistory("Done",
				domain.StatusTransition{Status: "To Do", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "Done", EnteredAt: ts(2, 9)},
			),
			ok: false,
		},
		{
			name:   "no history",
			ticket: ticketWithHistory("Done"),
			ok:     false,
		},
		{
			name: "status matching is case-insensitive",
			ticket: ticketWithHistory("DONE",
				domain.StatusTransition{Status: "in progress", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "DONE", EnteredAt: ts(1, 21)},
			),
			want: 12 * time.Hour,
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.CycleTime(tt.ticket)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("cycle time = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusAt(t *testing.T) {
	ticket := ticketWithHistory("Done",
		domain.StatusTransition{Status: "In Progress", EnteredAt: ts(2, 9)},
		domain.StatusTransition{Status: "Review", EnteredAt: ts(4, 9)},
		domain.StatusTransition{Status: "Done", EnteredAt: ts(6, 9)},
	)

	tests := []struct {
		asOf time.Time
		want string
	}{
		{ts(3, 0), "In Progress"},
		{ts(5, 0), "Review"},
		{ts(7, 0), "Done"},
		// Before any transition falls back to the current status
		{ts(1, 0), "Done"},
		// Zero asOf means now
		{time.Time{}, "Done"},
	}
	for _, tt := range tests {
		if got := StatusAt(ticket, tt.asOf); got != tt.want {
			t.Fatalf("StatusAt(%v) = %q, want %q", tt.asOf, got, tt.want)
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		want    time.Duration
	}{
		{"empty", nil, 0},
		{"single", []time.Duration{5 * time.Hour}, 5 * time.Hour},
		{"odd", []time.Duration{3 * time.Hour, 1 * time.Hour, 2 * time.Hour}, 2 * time.Hour},
		{"even is mean of middle two", []time.Duration{1 * time.Hour, 2 * time.Hour, 3 * time.Hour, 4 * time.Hour}, 150 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.samples); got != tt.want {
				t.Fatalf("median = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestP90NearestRank(t *testing.T) {
	tests := []struct {
		n    int
		want time.Duration
	}{
		// rank = ceil(0.9*n), value is the rank-th smallest
		{1, 1 * time.Hour},
		{2, 2 * time.Hour},
		{5, 5 * time.Hour},
		{10, 9 * time.Hour},
		{11, 10 * time.Hour},
		{20, 18 * time.Hour},
	}
	for _, tt := range tests {
		samples := make([]time.Duration, tt.n)
		for i := range samples {
			samples[i] = time.Duration(i+1) * time.Hour
		}
		if got := P90(samples); got != tt.want {
			t.Fatalf("n=%d: p90 = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestComputeWIPLimit(t *testing.T) {
	e := NewEngine(testConfig)

	makeRecords := func(active int) []*domain.Record {
		records := make([]*domain.Record, active)
		for i := range records {
			records[i] = &domain.Record{
				Kind:   domain.SourceTicket,
				Ticket: ticketWithHistory("In Progress"),
			}
		}
		return records
	}

	// Limit of 5 is exclusive: 5 active tickets is at the limit
	result := e.Compute(makeRecords(5), time.Time{})
	if result.WIPCount != 5 {
		t.Fatalf("wip = %d, want 5", result.WIPCount)
	}
	if result.OverWIPLimit {
		t.Fatal("5 active with limit 5 must not be over the limit")
	}

	result = e.Compute(makeRecords(6), time.Time{})
	if !result.OverWIPLimit {
		t.Fatal("6 active with limit 5 must be over the limit")
	}

	// Limit 0 disables the flag
	unlimited := NewEngine(Config{ActiveStatuses: []string{"In Progress"}})
	result = unlimited.Compute(makeRecords(100), time.Time{})
	if result.OverWIPLimit {
		t.Fatal("limit 0 must disable the over-limit flag")
	}
}

func TestComputeExcludedAndSamples(t *testing.T) {
	e := NewEngine(testConfig)

	records := []*domain.Record{
		{
			Kind: domain.SourceTicket,
			Ticket: ticketWithHistory("Done",
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(1, 9)},
				domain.StatusTransition{Status: "Done", EnteredAt: ts(2, 9)},
			),
		},
		// Done without usable history is excluded, not an error
		{
			Kind:   domain.SourceTicket,
			Ticket: ticketWithHistory("Done"),
		},
		// Open ticket without history is neither a sample nor excluded
		{
			Kind:   domain.SourceTicket,
			Ticket: ticketWithHistory("To Do"),
		},
		// Non-ticket records are ignored
		{Kind: domain.SourcePullRequest},
	}

	result := e.Compute(records, time.Time{})
	if len(result.CycleTimeSamples) != 1 {
		t.Fatalf("samples = %d, want 1", len(result.CycleTimeSamples))
	}
	if result.Excluded != 1 {
		t.Fatalf("excluded = %d, want 1", result.Excluded)
	}
	if result.Median != 24*time.Hour {
		t.Fatalf("median = %v", result.Median)
	}
}

func TestComputeWIPAsOf(t *testing.T) {
	e := NewEngine(testConfig)
	records := []*domain.Record{
		{
			Kind: domain.SourceTicket,
			Ticket: ticketWithHistory("Done",
				domain.StatusTransition{Status: "In Progress", EnteredAt: ts(2, 9)},
				domain.StatusTransition{Status: "Done", EnteredAt: ts(6, 9)},
			),
		},
	}

	// Mid-flight instant counts toward WIP
	result := e.Compute(records, ts(4, 0))
	if result.WIPCount != 1 {
		t.Fatalf("wip at mid-flight = %d, want 1", result.WIPCount)
	}

	// After completion it does not
	result = e.Compute(records, ts(7, 0))
	if result.WIPCount != 0 {
		t.Fatalf("wip after done = %d, want 0", result.WIPCount)
	}
}
