// Package report renders computed summaries as formatted text tables.
// It consumes the read-only aggregate structures and never feeds
// anything back into the engine.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/mkurata/teampulse/internal/aggregate"
	"github.com/mkurata/teampulse/internal/domain"
)

// Renderer writes text reports to an output stream
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// FormatDuration formats a duration as hours under one day and as
// days plus hours beyond that, e.g. "2.5h", "3d 4.0h", "3d".
func FormatDuration(d time.Duration) string {
	hours := d.Hours()
	if hours < 24 {
		return fmt.Sprintf("%.1fh", hours)
	}
	days := int(hours / 24)
	remaining := hours - float64(days)*24
	if remaining < 1 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %.1fh", days, remaining)
}

// RenderSummary writes the full report: overview totals, ranked
// contributor table, and per-team roll-ups.
func (r *Renderer) RenderSummary(s *domain.ReportSummary) {
	fmt.Fprintf(r.w, "\nTeam Activity Report\n")
	fmt.Fprintf(r.w, "Time Range: %s\n\n", s.Window)

	overview := tablewriter.NewWriter(r.w)
	overview.SetHeader([]string{"Metric", "Value"})
	overview.Append([]string{"Tickets", fmt.Sprintf("%d", s.TotalTickets)})
	overview.Append([]string{"Pull Requests", fmt.Sprintf("%d", s.TotalPRs)})
	overview.Append([]string{"Commits", fmt.Sprintf("%d", s.TotalCommits)})
	overview.Append([]string{"Lines Added", fmt.Sprintf("%d", s.LinesAdded)})
	overview.Append([]string{"Lines Removed", fmt.Sprintf("%d", s.LinesRemoved)})
	overview.Append([]string{"Contributors", fmt.Sprintf("%d", len(s.Contributors))})
	if s.SkippedRecords > 0 {
		overview.Append([]string{"Skipped Records", fmt.Sprintf("%d", s.SkippedRecords)})
	}
	if s.DataQualityFlags > 0 {
		overview.Append([]string{"Data Quality Flags", fmt.Sprintf("%d", s.DataQualityFlags)})
	}
	overview.Render()

	fmt.Fprintf(r.w, "\nContributors\n\n")
	contributors := tablewriter.NewWriter(r.w)
	contributors.SetHeader([]string{"Contributor", "Tickets", "PRs", "Commits", "Reviews Given", "Lines +/-", "Cycle Median", "Cycle P90", "WIP", "Lead Median", "Avg Reviewers"})
	for _, name := range s.Ranking {
		cs := s.Contributors[name]
		wip := fmt.Sprintf("%d", cs.Flow.WIPCount)
		if cs.Flow.OverWIPLimit {
			wip += " (over limit)"
		}
		contributors.Append([]string{
			cs.Name,
			fmt.Sprintf("%d", cs.TicketCount()),
			fmt.Sprintf("%d", cs.PRCount()),
			fmt.Sprintf("%d", cs.CommitCount),
			fmt.Sprintf("%d", cs.ReviewsGiven),
			fmt.Sprintf("+%d/-%d", cs.LinesAdded, cs.LinesRemoved),
			sampleOrDash(cs.Flow.Median, len(cs.Flow.CycleTimeSamples)),
			sampleOrDash(cs.Flow.P90, len(cs.Flow.CycleTimeSamples)),
			wip,
			sampleOrDash(cs.Delivery.MedianLead, len(cs.Delivery.LeadTimeSamples)),
			fmt.Sprintf("%.1f", cs.Delivery.AvgReviewers),
		})
	}
	contributors.Render()

	if len(s.Teams) > 0 {
		fmt.Fprintf(r.w, "\nTeam Categories\n\n")
		teams := tablewriter.NewWriter(r.w)
		teams.SetHeader([]string{"Category", "Tickets", "Contributors", "Cycle Median", "Cycle P90", "WIP"})
		for _, team := range s.Teams {
			teams.Append([]string{
				team.Category,
				fmt.Sprintf("%d", team.TicketCount),
				fmt.Sprintf("%d", len(team.Contributors)),
				sampleOrDash(team.Flow.Median, len(team.Flow.CycleTimeSamples)),
				sampleOrDash(team.Flow.P90, len(team.Flow.CycleTimeSamples)),
				fmt.Sprintf("%d", team.Flow.WIPCount),
			})
		}
		teams.Render()
	}
}

// RenderWeekly writes the engineer-performance breakdown: one weekly
// metrics table per engineer followed by trend and coaching notes.
func (r *Renderer) RenderWeekly(series domain.WeeklySeries, engineers []*aggregate.EngineerWeekly, coaching aggregate.CoachingConfig) {
	fmt.Fprintf(r.w, "\nEngineer Performance (%d weeks)\n", len(series))
	if len(series) > 0 {
		fmt.Fprintf(r.w, "Quarter: %s to %s\n", series[0].Start.Format("2006-01-02"), series[len(series)-1].End.Format("2006-01-02"))
	}

	for _, ew := range engineers {
		trends := aggregate.ComputeTrends(ew)
		fmt.Fprintf(r.w, "\n%s  (%.1f PRs/week, %.1f tickets/week)\n\n", ew.Name, trends.AvgPRsPerWeek, trends.AvgTicketsPerWeek)

		header := []string{"Metric"}
		for i := range series {
			header = append(header, fmt.Sprintf("W%d", i+1))
		}
		header = append(header, "Trend")

		table := tablewriter.NewWriter(r.w)
		table.SetHeader(header)
		table.Append(weeklyRow("PRs Merged", trends.PRsMerged, string(trends.Productivity)))
		table.Append(weeklyRow("Commits", trends.Commits, ""))
		table.Append(weeklyRow("Tickets Done", trends.TicketsCompleted, ""))
		table.Append(weeklyRow("Reviews Given", trends.ReviewsGiven, string(trends.Collaboration)))
		table.Append(weeklyRow("Lines Changed", trends.LinesChanged, string(trends.Velocity)))
		table.Render()

		for _, insight := range aggregate.CoachingInsights(ew, trends, coaching) {
			fmt.Fprintf(r.w, "  - %s\n", insight)
		}
	}
}

func weeklyRow(metric string, values []int, trend string) []string {
	row := []string{metric}
	for _, v := range values {
		row = append(row, fmt.Sprintf("%d", v))
	}
	if trend == "" {
		trend = "-"
	}
	return append(row, trend)
}

func sampleOrDash(d time.Duration, samples int) string {
	if samples == 0 {
		return "-"
	}
	return FormatDuration(d)
}
