package aggregate

import (
	"strings"
	"testing"
)

func weeklyFixture(prs, tickets, reviewsGiven, reviewsReceived, lines []int) *EngineerWeekly {
	n := len(prs)
	ew := &EngineerWeekly{Name: "Alice Chen", Weeks: make([]WeekMetrics, n)}
	for i := 0; i < n; i++ {
		ew.Weeks[i].PRsMerged = prs[i]
		if tickets != nil {
			ew.Weeks[i].TicketsCompleted = tickets[i]
		}
		if reviewsGiven != nil {
			ew.Weeks[i].ReviewsGiven = reviewsGiven[i]
		}
		if reviewsReceived != nil {
			ew.Weeks[i].ReviewsReceived = reviewsReceived[i]
		}
		if lines != nil {
			ew.Weeks[i].LinesAdded = lines[i]
		}
	}
	return ew
}

func TestComputeTrends(t *testing.T) {
	ew := weeklyFixture(
		[]int{1, 1, 1, 3, 3, 3},
		nil,
		[]int{3, 3, 3, 1, 1, 1},
		nil,
		[]int{10, 10, 10, 10, 10, 10},
	)

	tr := ComputeTrends(ew)
	if tr.Productivity != TrendIncreasing {
		t.Errorf("Productivity = %q, want increasing", tr.Productivity)
	}
	if tr.Collaboration != TrendDecreasing {
		t.Errorf("Collaboration = %q, want decreasing", tr.Collaboration)
	}
	if tr.Velocity != TrendStable {
		t.Errorf("Velocity = %q, want stable", tr.Velocity)
	}
	if tr.TotalPRs != 12 {
		t.Errorf("TotalPRs = %d, want 12", tr.TotalPRs)
	}
	if tr.AvgPRsPerWeek != 2.0 {
		t.Errorf("AvgPRsPerWeek = %v, want 2.0", tr.AvgPRsPerWeek)
	}
	if tr.TotalTickets != 0 || tr.AvgTicketsPerWeek != 0 {
		t.Errorf("tickets = %d avg %v, want zero", tr.TotalTickets, tr.AvgTicketsPerWeek)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name      string
		primary   []int
		secondary []int
		want      TrendDirection
	}{
		{"too few non-zero points", []int{2, 0, 3, 0, 0, 0}, nil, TrendStable},
		{"flat", []int{2, 2, 2, 2}, nil, TrendStable},
		{"rising", []int{1, 1, 1, 2, 2, 2}, nil, TrendIncreasing},
		{"falling", []int{4, 4, 4, 2, 2, 2}, nil, TrendDecreasing},
		{"within 20 percent band", []int{10, 10, 10, 11, 11, 11}, nil, TrendStable},
		{"secondary series contributes", []int{0, 0, 0, 0, 0, 0}, []int{1, 1, 1, 3, 3, 3}, TrendIncreasing},
		{"zeros ignored not treated as drops", []int{3, 0, 3, 0, 3, 3}, nil, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTrend(tt.primary, tt.secondary); got != tt.want {
				t.Fatalf("classifyTrend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoachingInsightsHealthyEngineer(t *testing.T) {
	ew := weeklyFixture(
		[]int{2, 2, 2, 2},
		nil,
		[]int{2, 2, 2, 2},
		[]int{2, 2, 2, 2},
		nil,
	)
	tr := ComputeTrends(ew)
	insights := CoachingInsights(ew, tr, DefaultCoachingConfig())
	if len(insights) != 0 {
		t.Fatalf("insights = %v, want none", insights)
	}
}

func TestCoachingInsightsFlagsProblems(t *testing.T) {
	ew := weeklyFixture(
		[]int{2, 0, 0, 0},
		nil,
		nil,
		[]int{1, 1, 1, 1},
		nil,
	)
	ew.Weeks[3].WIP = 5
	tr := ComputeTrends(ew)
	insights := CoachingInsights(ew, tr, DefaultCoachingConfig())

	wants := []string{
		"Low PR output",
		"Not participating in code reviews",
		"High WIP: 5",
		"Limited activity: productive in 1/4 weeks",
	}
	for _, want := range wants {
		found := false
		for _, got := range insights {
			if strings.Contains(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing insight containing %q in %v", want, insights)
		}
	}
}

func TestCoachingInsightsReviewRatio(t *testing.T) {
	ew := weeklyFixture(
		[]int{2, 2, 2, 2},
		nil,
		[]int{1, 0, 0, 0},
		[]int{2, 2, 2, 2},
		nil,
	)
	tr := ComputeTrends(ew)
	insights := CoachingInsights(ew, tr, DefaultCoachingConfig())

	found := false
	for _, got := range insights {
		if strings.Contains(got, "Low review participation: giving 1 vs receiving 8") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing review ratio insight in %v", insights)
	}
}

func TestCoachingInsightsDecreasingProductivity(t *testing.T) {
	ew := weeklyFixture(
		[]int{4, 4, 4, 1, 1, 1},
		nil,
		[]int{2, 2, 2, 2, 2, 2},
		[]int{2, 2, 2, 2, 2, 2},
		nil,
	)
	tr := ComputeTrends(ew)
	if tr.Productivity != TrendDecreasing {
		t.Fatalf("Productivity = %q, want decreasing", tr.Productivity)
	}
	insights := CoachingInsights(ew, tr, DefaultCoachingConfig())
	found := false
	for _, got := range insights {
		if strings.Contains(got, "Productivity trend decreasing") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing productivity insight in %v", insights)
	}
}
