package domain

import "time"

// FlowMetricResult holds ticket flow metrics for one contributor or team
type FlowMetricResult struct {
	CycleTimeSamples []time.Duration // one per ticket with both anchor transitions
	Median           time.Duration
	P90              time.Duration
	WIPCount         int // active tickets at the as-of instant
	OverWIPLimit     bool
	Excluded         int // tickets lacking usable transition history
}

// DeliveryMetricResult holds pull request delivery metrics for one contributor
type DeliveryMetricResult struct {
	LeadTimeSamples []time.Duration // non-trivial merged PRs only
	MedianLead      time.Duration
	AvgLead         time.Duration
	ReviewerCounts  []int
	CommentCounts   []int
	AvgReviewers    float64
	AvgComments     float64
	TrivialPRs      int
	Anomalies       int // merged PRs excluded for inconsistent timestamps
}

// ContributorSummary is the per-contributor slice of a report
type ContributorSummary struct {
	Name            string // canonical display name
	TicketsByStatus map[string]int
	PRsByState      map[PRState]int
	CommitCount     int
	LinesAdded      int
	LinesRemoved    int
	ReviewsGiven    int
	CommentsGiven   int
	Flow            *FlowMetricResult
	Delivery        *DeliveryMetricResult
}

// TicketCount returns the total ticket count across statuses
func (c *ContributorSummary) TicketCount() int {
	total := 0
	for _, n := range c.TicketsByStatus {
		total += n
	}
	return total
}

// PRCount returns the total pull request count across states
func (c *ContributorSummary) PRCount() int {
	total := 0
	for _, n := range c.PRsByState {
		total += n
	}
	return total
}

// TeamSummary is a per-category roll-up. A contributor appearing in
// several categories is counted once per category; the overall totals
// on ReportSummary count each record exactly once.
type TeamSummary struct {
	Category     string
	Description  string
	TicketCount  int
	Contributors []string // canonical names, sorted ascending
	Flow         *FlowMetricResult
}

// HeadlineMetric selects the primary ranking key of a report
type HeadlineMetric string

const (
	HeadlineTickets HeadlineMetric = "tickets"
	HeadlinePRs     HeadlineMetric = "prs"
)

// ReportSummary is the terminal aggregate for one report invocation.
// It is read-only input to rendering and never persisted.
type ReportSummary struct {
	Window       TimeWindow
	Contributors map[string]*ContributorSummary
	Ranking      []string // canonical names, headline metric desc, name asc
	Teams        []*TeamSummary

	TotalTickets int
	TotalPRs     int
	TotalCommits int
	LinesAdded   int
	LinesRemoved int

	SkippedRecords   int // malformed records dropped at normalization
	DataQualityFlags int // samples excluded for anomalous timestamps
}
