package aggregate

import "fmt"

// TrendDirection classifies a metric's trajectory across a quarter
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

// Trends is the per-engineer trend analysis over weekly buckets
type Trends struct {
	Productivity  TrendDirection
	Collaboration TrendDirection
	Velocity      TrendDirection

	PRsMerged        []int
	Commits          []int
	TicketsCompleted []int
	ReviewsGiven     []int
	LinesChanged     []int

	AvgPRsPerWeek     float64
	AvgTicketsPerWeek float64
	TotalPRs          int
	TotalTickets      int
}

// ComputeTrends extracts weekly time series for the key metrics and
// classifies each trajectory.
func ComputeTrends(ew *EngineerWeekly) *Trends {
	tr := &Trends{}
	for i := range ew.Weeks {
		w := &ew.Weeks[i]
		tr.PRsMerged = append(tr.PRsMerged, w.PRsMerged)
		tr.Commits = append(tr.Commits, w.Commits)
		tr.TicketsCompleted = append(tr.TicketsCompleted, w.TicketsCompleted)
		tr.ReviewsGiven = append(tr.ReviewsGiven, w.ReviewsGiven)
		tr.LinesChanged = append(tr.LinesChanged, w.LinesChanged())
	}
	tr.Productivity = classifyTrend(tr.PRsMerged, tr.TicketsCompleted)
	tr.Collaboration = classifyTrend(tr.ReviewsGiven, nil)
	tr.Velocity = classifyTrend(tr.LinesChanged, nil)
	if n := len(ew.Weeks); n > 0 {
		tr.TotalPRs = sum(tr.PRsMerged)
		tr.TotalTickets = sum(tr.TicketsCompleted)
		tr.AvgPRsPerWeek = float64(tr.TotalPRs) / float64(n)
		tr.AvgTicketsPerWeek = float64(tr.TotalTickets) / float64(n)
	}
	return tr
}

// classifyTrend compares the first-half and second-half means of the
// non-zero values; a 20% shift either way counts as a trend. Fewer than
// three non-zero data points is always stable.
func classifyTrend(primary, secondary []int) TrendDirection {
	combined := make([]int, len(primary))
	copy(combined, primary)
	if len(secondary) == len(primary) {
		for i, v := range secondary {
			combined[i] += v
		}
	}
	var nonZero []float64
	for _, v := range combined {
		if v > 0 {
			nonZero = append(nonZero, float64(v))
		}
	}
	if len(nonZero) < 3 {
		return TrendStable
	}
	mid := len(nonZero) / 2
	firstHalf := mean(nonZero[:mid])
	secondHalf := mean(nonZero[mid:])
	if firstHalf == 0 {
		return TrendStable
	}
	ratio := secondHalf / firstHalf
	switch {
	case ratio > 1.2:
		return TrendIncreasing
	case ratio < 0.8:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// CoachingConfig carries the thresholds driving coaching insights
type CoachingConfig struct {
	MinPRsPerWeek          float64
	MaxWIP                 int
	MinReviewParticipation float64
	MinActiveWeekRatio     float64
}

// DefaultCoachingConfig returns the thresholds used when none are configured
func DefaultCoachingConfig() CoachingConfig {
	return CoachingConfig{
		MinPRsPerWeek:          1.0,
		MaxWIP:                 3,
		MinReviewParticipation: 0.5,
		MinActiveWeekRatio:     0.7,
	}
}

// CoachingInsights derives human-readable observations from an
// engineer's weekly data and trends.
func CoachingInsights(ew *EngineerWeekly, tr *Trends, cfg CoachingConfig) []string {
	var insights []string

	if tr.AvgPRsPerWeek < cfg.MinPRsPerWeek {
		insights = append(insights, fmt.Sprintf(
			"Low PR output: %.1f PRs/week (target: %.1f)", tr.AvgPRsPerWeek, cfg.MinPRsPerWeek))
	}

	reviewsGiven, reviewsReceived := 0, 0
	for i := range ew.Weeks {
		reviewsGiven += ew.Weeks[i].ReviewsGiven
		reviewsReceived += ew.Weeks[i].ReviewsReceived
	}
	if reviewsGiven == 0 && reviewsReceived > 0 {
		insights = append(insights, "Not participating in code reviews")
	} else if reviewsGiven > 0 && reviewsReceived > 0 {
		if ratio := float64(reviewsGiven) / float64(reviewsReceived); ratio < cfg.MinReviewParticipation {
			insights = append(insights, fmt.Sprintf(
				"Low review participation: giving %d vs receiving %d reviews", reviewsGiven, reviewsReceived))
		}
	}

	switch tr.Productivity {
	case TrendDecreasing:
		insights = append(insights, "Productivity trend decreasing - check for blockers or workload issues")
	case TrendIncreasing:
		insights = append(insights, "Productivity trend increasing")
	}

	if n := len(ew.Weeks); n > 0 {
		// WIP is attributed to the final week of the quarter
		if wip := ew.Weeks[n-1].WIP; cfg.MaxWIP > 0 && wip > cfg.MaxWIP {
			insights = append(insights, fmt.Sprintf(
				"High WIP: %d tickets in flight (limit: %d)", wip, cfg.MaxWIP))
		}
		active := ew.ActiveWeeks()
		if float64(active) < float64(n)*cfg.MinActiveWeekRatio {
			insights = append(insights, fmt.Sprintf(
				"Limited activity: productive in %d/%d weeks", active, n))
		}
	}
	return insights
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
