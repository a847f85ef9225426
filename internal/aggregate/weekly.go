package aggregate

import (
	"sort"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/flow"
)

// WeekMetrics is one engineer's activity within a single weekly window
type WeekMetrics struct {
	PRsCreated       int
	PRsMerged        int
	Commits          int
	TicketsCompleted int
	ReviewsGiven     int
	ReviewsReceived  int
	CommentsGiven    int
	CommentsReceived int
	WIP              int
	LinesAdded       int
	LinesRemoved     int
	CycleTimes       []time.Duration
}

// LinesChanged returns additions plus removals
func (w *WeekMetrics) LinesChanged() int {
	return w.LinesAdded + w.LinesRemoved
}

// EngineerWeekly is an engineer's quarter broken into weekly buckets,
// parallel to the WeeklySeries it was computed against.
type EngineerWeekly struct {
	Name  string
	Weeks []WeekMetrics
}

// ActiveWeeks counts weeks with at least one merged PR or completed ticket
func (e *EngineerWeekly) ActiveWeeks() int {
	active := 0
	for i := range e.Weeks {
		if e.Weeks[i].PRsMerged+e.Weeks[i].TicketsCompleted > 0 {
			active++
		}
	}
	return active
}

// WeeklyBreakdown distributes a quarter's records into per-engineer
// weekly buckets. Merged PRs land in their merge week, commits in their
// authored week, and completed tickets in their last-updated week.
// Active tickets contribute WIP to the final week of the series,
// reflecting work in flight at the end of the quarter. Results are
// sorted by engineer name.
func (a *Aggregator) WeeklyBreakdown(series domain.WeeklySeries, records []*domain.Record) []*EngineerWeekly {
	kept := a.filter(records)
	engineers := make(map[string]*EngineerWeekly)
	bucket := func(rawIdentity string, week int) *WeekMetrics {
		if week < 0 || rawIdentity == "" || !a.opts.Bots.Keep(rawIdentity) {
			return nil
		}
		name := a.opts.Resolver.DisplayName(rawIdentity)
		if name == "" {
			return nil
		}
		ew, ok := engineers[name]
		if !ok {
			ew = &EngineerWeekly{Name: name, Weeks: make([]WeekMetrics, len(series))}
			engineers[name] = ew
		}
		return &ew.Weeks[week]
	}

	for _, rec := range kept {
		switch rec.Kind {
		case domain.SourcePullRequest:
			pr := rec.PullRequest
			if w := bucket(rec.Actor, findWeek(series, rec.CreatedAt)); w != nil {
				w.PRsCreated++
			}
			if pr.State != domain.PRStateMerged || pr.MergedAt == nil {
				continue
			}
			mergeWeek := findWeek(series, *pr.MergedAt)
			if w := bucket(rec.Actor, mergeWeek); w != nil {
				w.PRsMerged++
				w.LinesAdded += pr.LinesAdded
				w.LinesRemoved += pr.LinesRemoved
				// Bot reviewers and bot comments do not count on the
				// received side either
				for _, reviewer := range pr.Reviewers {
					if a.opts.Bots.Keep(reviewer) {
						w.ReviewsReceived++
					}
				}
				for _, author := range pr.CommentAuthors {
					if a.opts.Bots.Keep(author) {
						w.CommentsReceived++
					}
				}
			}
			for _, author := range pr.CommentAuthors {
				if author == rec.Actor {
					continue
				}
				if w := bucket(author, mergeWeek); w != nil {
					w.CommentsGiven++
				}
			}
		case domain.SourceCommit:
			if w := bucket(rec.Actor, findWeek(series, rec.CreatedAt)); w != nil {
				w.Commits++
			}
		case domain.SourceReview:
			if w := bucket(rec.Actor, findWeek(series, rec.CreatedAt)); w != nil {
				w.ReviewsGiven++
			}
		case domain.SourceTicket:
			ticket := rec.Ticket
			if a.opts.Flow.IsDone(ticket.Status) {
				week := findWeek(series, rec.UpdatedAt)
				if w := bucket(rec.Actor, week); w != nil {
					w.TicketsCompleted++
					if sample, ok := a.opts.Flow.CycleTime(ticket); ok {
						w.CycleTimes = append(w.CycleTimes, sample)
					}
				}
			} else if a.opts.Flow.IsActive(ticket.Status) && len(series) > 0 {
				if w := bucket(rec.Actor, len(series)-1); w != nil {
					w.WIP++
				}
			}
		}
	}

	names := make([]string, 0, len(engineers))
	for name := range engineers {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]*EngineerWeekly, 0, len(names))
	for _, name := range names {
		result = append(result, engineers[name])
	}
	return result
}

// findWeek returns the index of the window containing t, or -1
func findWeek(series domain.WeeklySeries, t time.Time) int {
	for i, w := range series {
		if w.Contains(t) {
			return i
		}
	}
	return -1
}

// AvgCycleTime returns the mean cycle time across a week's samples
func (w *WeekMetrics) AvgCycleTime() time.Duration {
	if len(w.CycleTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, c := range w.CycleTimes {
		total += c
	}
	return total / time.Duration(len(w.CycleTimes))
}

// MedianCycleTime returns the median cycle time across a week's samples
func (w *WeekMetrics) MedianCycleTime() time.Duration {
	return flow.Median(w.CycleTimes)
}
