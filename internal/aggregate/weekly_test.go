package aggregate

import (
	"testing"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
)

// weekSeries builds n contiguous weekly windows starting 2025-07-01.
func weekSeries(n int) domain.WeeklySeries {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.WeeklySeries, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, domain.TimeWindow{
			Start: start.AddDate(0, 0, i*7),
			End:   start.AddDate(0, 0, (i+1)*7),
		})
	}
	return series
}

func mergedPRRecord(id, author string, created, merged time.Time) *domain.Record {
	first := created
	return &domain.Record{
		ID:        id,
		Kind:      domain.SourcePullRequest,
		Actor:     author,
		CreatedAt: created,
		UpdatedAt: merged,
		PullRequest: &domain.PullRequestDetail{
			Title:              "Feature " + id,
			State:              domain.PRStateMerged,
			MergedAt:           &merged,
			FirstCommitAt:      &first,
			LinesAdded:         100,
			LinesRemoved:       20,
			Reviewers:          []string{"bob"},
			ReviewCommentCount: 2,
			CommentAuthors:     []string{"bob", author},
		},
	}
}

func TestWeeklyBreakdownBuckets(t *testing.T) {
	agg := New(testOptions())
	series := weekSeries(4)

	doneTicket := ticketRecord("PAY-1", "alice", "PAY", "Done")
	doneTicket.UpdatedAt = day(17)
	doneTicket.Ticket.StatusHistory = []domain.StatusTransition{
		{Status: "In Progress", EnteredAt: day(15)},
		{Status: "Done", EnteredAt: day(16)},
	}

	activeTicket := ticketRecord("PAY-2", "alice", "PAY", "In Progress")

	records := []*domain.Record{
		mergedPRRecord("acme/api#1", "alice", day(2), day(16)),
		{ID: "c1", Kind: domain.SourceCommit, Actor: "bob", CreatedAt: day(9), UpdatedAt: day(9),
			Commit: &domain.CommitDetail{Sha: "c1"}},
		{ID: "r1", Kind: domain.SourceReview, Actor: "bob", CreatedAt: day(16), UpdatedAt: day(16),
			Review: &domain.ReviewDetail{PRNumber: 1, PRAuthor: "alice", State: "APPROVED"}},
		doneTicket,
		activeTicket,
	}

	result := agg.WeeklyBreakdown(series, records)
	if len(result) != 2 {
		t.Fatalf("engineers = %d, want 2", len(result))
	}
	if result[0].Name != "Alice Chen" || result[1].Name != "Bob Park" {
		t.Fatalf("names = %q, %q", result[0].Name, result[1].Name)
	}

	alice := result[0].Weeks
	if alice[0].PRsCreated != 1 {
		t.Errorf("alice week 0 PRsCreated = %d, want 1", alice[0].PRsCreated)
	}
	// Merge on day 16 lands in the third week (Jul 15-22).
	if alice[2].PRsMerged != 1 || alice[2].LinesAdded != 100 || alice[2].LinesRemoved != 20 {
		t.Errorf("alice week 2 merged stats = %+v", alice[2])
	}
	if alice[2].ReviewsReceived != 1 || alice[2].CommentsReceived != 2 {
		t.Errorf("alice week 2 review stats = %+v", alice[2])
	}
	if alice[2].TicketsCompleted != 1 {
		t.Errorf("alice week 2 TicketsCompleted = %d, want 1", alice[2].TicketsCompleted)
	}
	if len(alice[2].CycleTimes) != 1 || alice[2].CycleTimes[0] != 24*time.Hour {
		t.Errorf("alice week 2 CycleTimes = %v", alice[2].CycleTimes)
	}
	if alice[3].WIP != 1 {
		t.Errorf("alice final week WIP = %d, want 1", alice[3].WIP)
	}

	bob := result[1].Weeks
	if bob[1].Commits != 1 {
		t.Errorf("bob week 1 Commits = %d, want 1", bob[1].Commits)
	}
	if bob[2].ReviewsGiven != 1 {
		t.Errorf("bob week 2 ReviewsGiven = %d, want 1", bob[2].ReviewsGiven)
	}
	// bob commented on alice's PR; alice's own comment is self-attributed
	// and dropped.
	if bob[2].CommentsGiven != 1 {
		t.Errorf("bob week 2 CommentsGiven = %d, want 1", bob[2].CommentsGiven)
	}
}

func TestWeeklyBreakdownSkipsUnbucketed(t *testing.T) {
	agg := New(testOptions())
	series := weekSeries(2)

	records := []*domain.Record{
		// Commit after the last window never finds a week.
		{ID: "c1", Kind: domain.SourceCommit, Actor: "alice", CreatedAt: day(20), UpdatedAt: day(20),
			Commit: &domain.CommitDetail{Sha: "c1"}},
		// Bot activity is filtered out entirely.
		{ID: "c2", Kind: domain.SourceCommit, Actor: "dependabot[bot]", CreatedAt: day(2), UpdatedAt: day(2),
			Commit: &domain.CommitDetail{Sha: "c2"}},
	}

	result := agg.WeeklyBreakdown(series, records)
	if len(result) != 0 {
		t.Fatalf("engineers = %d, want 0", len(result))
	}
}

func TestWeeklyBreakdownExcludesBotReviewActivity(t *testing.T) {
	agg := New(testOptions())
	series := weekSeries(2)

	pr := mergedPRRecord("acme/api#1", "alice", day(2), day(3))
	pr.PullRequest.Reviewers = []string{"dependabot[bot]"}
	pr.PullRequest.CommentAuthors = []string{"dependabot[bot]"}
	pr.PullRequest.ReviewCommentCount = 1

	result := agg.WeeklyBreakdown(series, []*domain.Record{pr})
	if len(result) != 1 {
		t.Fatalf("engineers = %d, want 1", len(result))
	}
	week := result[0].Weeks[0]
	if week.PRsMerged != 1 {
		t.Fatalf("PRsMerged = %d, want 1", week.PRsMerged)
	}
	if week.ReviewsReceived != 0 || week.CommentsReceived != 0 {
		t.Fatalf("bot review activity counted: received %d reviews, %d comments, want 0/0",
			week.ReviewsReceived, week.CommentsReceived)
	}
}

func TestActiveWeeks(t *testing.T) {
	ew := &EngineerWeekly{Weeks: []WeekMetrics{
		{PRsMerged: 1},
		{},
		{TicketsCompleted: 2},
		{Commits: 5},
	}}
	if got := ew.ActiveWeeks(); got != 2 {
		t.Fatalf("ActiveWeeks = %d, want 2", got)
	}
}

func TestWeekMetricsCycleTimeAverages(t *testing.T) {
	w := &WeekMetrics{CycleTimes: []time.Duration{
		10 * time.Hour, 20 * time.Hour, 60 * time.Hour,
	}}
	if got := w.AvgCycleTime(); got != 30*time.Hour {
		t.Errorf("AvgCycleTime = %v, want 30h", got)
	}
	if got := w.MedianCycleTime(); got != 20*time.Hour {
		t.Errorf("MedianCycleTime = %v, want 20h", got)
	}

	empty := &WeekMetrics{}
	if got := empty.AvgCycleTime(); got != 0 {
		t.Errorf("empty AvgCycleTime = %v, want 0", got)
	}
}
