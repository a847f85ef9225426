// Package aggregate folds normalized, filtered, resolved records plus
// the flow and delivery engine outputs into per-contributor and
// per-team report summaries. The fold is pure and deterministic: every
// map iteration that feeds ordered output is explicitly sorted.
package aggregate

import (
	"sort"
	"time"

	"github.com/mkurata/teampulse/internal/categorize"
	"github.com/mkurata/teampulse/internal/delivery"
	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/flow"
	"github.com/mkurata/teampulse/internal/identity"
)

// Options wires the aggregator's collaborators and policies. Each
// report invocation owns its own Options and record set; there is no
// shared mutable state, so independent reports may run concurrently.
type Options struct {
	Rules    []domain.CategoryRule
	Bots     *identity.BotFilter
	Resolver *identity.Resolver
	Flow     *flow.Engine
	Delivery *delivery.Engine
	Headline domain.HeadlineMetric
	AsOf     time.Time // zero means "now" semantics for WIP
}

// Aggregator produces ReportSummary values from record collections
type Aggregator struct {
	opts Options
}

// New creates an aggregator
func New(opts Options) *Aggregator {
	if opts.Headline == "" {
		opts.Headline = domain.HeadlinePRs
	}
	return &Aggregator{opts: opts}
}

// Summarize folds the record collection into one ReportSummary.
// skipped is the count of malformed records dropped at normalization,
// surfaced in the summary for visibility.
//
// Declared skip paths: bot actors, records whose actor is unmapped
// under the drop policy, and unassigned tickets (which still count
// toward team and overall totals, just not toward any contributor).
func (a *Aggregator) Summarize(win domain.TimeWindow, records []*domain.Record, skipped int) *domain.ReportSummary {
	summary := &domain.ReportSummary{
		Window:         win,
		Contributors:   make(map[string]*domain.ContributorSummary),
		SkippedRecords: skipped,
	}

	kept := a.filter(records)
	byContributor := make(map[string][]*domain.Record)

	for _, rec := range kept {
		name := a.opts.Resolver.DisplayName(rec.Actor)
		if name != "" {
			byContributor[name] = append(byContributor[name], rec)
		}
		switch rec.Kind {
		case domain.SourceTicket:
			summary.TotalTickets++
		case domain.SourcePullRequest:
			summary.TotalPRs++
			summary.LinesAdded += rec.PullRequest.LinesAdded
			summary.LinesRemoved += rec.PullRequest.LinesRemoved
		case domain.SourceCommit:
			summary.TotalCommits++
		}
	}

	names := make([]string, 0, len(byContributor))
	for name := range byContributor {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		summary.Contributors[name] = a.summarizeContributor(name, byContributor[name])
	}
	a.attributeGivenActivity(kept, summary.Contributors)

	summary.Teams = a.summarizeTeams(kept)
	summary.Ranking = a.rank(summary.Contributors)
	for _, cs := range summary.Contributors {
		summary.DataQualityFlags += cs.Delivery.Anomalies
	}
	return summary
}

// filter applies the bot filter and the unmapped-identity policy.
// Unassigned tickets are kept; every other record needs a resolvable
// actor.
func (a *Aggregator) filter(records []*domain.Record) []*domain.Record {
	kept := make([]*domain.Record, 0, len(records))
	for _, rec := range records {
		if !a.opts.Bots.Keep(rec.Actor) {
			continue
		}
		if rec.Actor == "" {
			if rec.Kind == domain.SourceTicket {
				kept = append(kept, rec)
			}
			continue
		}
		if _, ok := a.opts.Resolver.Resolve(rec.Actor); !ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func (a *Aggregator) summarizeContributor(name string, records []*domain.Record) *domain.ContributorSummary {
	cs := &domain.ContributorSummary{
		Name:            name,
		TicketsByStatus: make(map[string]int),
		PRsByState:      make(map[domain.PRState]int),
	}
	for _, rec := range records {
		switch rec.Kind {
		case domain.SourceTicket:
			cs.TicketsByStatus[rec.Ticket.Status]++
		case domain.SourcePullRequest:
			cs.PRsByState[rec.PullRequest.State]++
			cs.LinesAdded += rec.PullRequest.LinesAdded
			cs.LinesRemoved += rec.PullRequest.LinesRemoved
		case domain.SourceCommit:
			cs.CommitCount++
		}
	}
	cs.Flow = a.opts.Flow.Compute(records, a.opts.AsOf)
	cs.Delivery = a.opts.Delivery.Compute(records)
	return cs
}

// attributeGivenActivity credits reviews and review comments to the
// contributors who gave them, across all kept pull requests.
func (a *Aggregator) attributeGivenActivity(records []*domain.Record, contributors map[string]*domain.ContributorSummary) {
	credit := func(rawIdentity string) *domain.ContributorSummary {
		if rawIdentity == "" || !a.opts.Bots.Keep(rawIdentity) {
			return nil
		}
		name := a.opts.Resolver.DisplayName(rawIdentity)
		if name == "" {
			return nil
		}
		return contributors[name]
	}
	for _, rec := range records {
		switch rec.Kind {
		case domain.SourceReview:
			if cs := credit(rec.Actor); cs != nil {
				cs.ReviewsGiven++
			}
		case domain.SourcePullRequest:
			for _, author := range rec.PullRequest.CommentAuthors {
				if author == rec.Actor {
					continue
				}
				if cs := credit(author); cs != nil {
					cs.CommentsGiven++
				}
			}
		}
	}
}

// summarizeTeams rolls tickets up into category buckets. A ticket
// matching several rules is counted once per category; configured
// categories appear in rule order, the sentinel bucket last and only
// when occupied.
func (a *Aggregator) summarizeTeams(records []*domain.Record) []*domain.TeamSummary {
	type bucket struct {
		tickets      []*domain.Record
		contributors map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	get := func(name string) *bucket {
		b, ok := buckets[name]
		if !ok {
			b = &bucket{contributors: make(map[string]struct{})}
			buckets[name] = b
		}
		return b
	}

	for _, rec := range records {
		if rec.Kind != domain.SourceTicket {
			continue
		}
		for _, category := range categorize.Buckets(rec.Ticket, a.opts.Rules) {
			b := get(category)
			b.tickets = append(b.tickets, rec)
			if name := a.opts.Resolver.DisplayName(rec.Actor); name != "" {
				b.contributors[name] = struct{}{}
			}
		}
	}

	order := make([]string, 0, len(a.opts.Rules)+1)
	descriptions := make(map[string]string, len(a.opts.Rules))
	for _, rule := range a.opts.Rules {
		order = append(order, rule.Name)
		descriptions[rule.Name] = rule.Description
	}
	if b, ok := buckets[domain.UncategorizedBucket]; ok && len(b.tickets) > 0 {
		order = append(order, domain.UncategorizedBucket)
	}

	teams := make([]*domain.TeamSummary, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		if b == nil {
			b = &bucket{contributors: make(map[string]struct{})}
		}
		contributors := make([]string, 0, len(b.contributors))
		for c := range b.contributors {
			contributors = append(contributors, c)
		}
		sort.Strings(contributors)
		teams = append(teams, &domain.TeamSummary{
			Category:     name,
			Description:  descriptions[name],
			TicketCount:  len(b.tickets),
			Contributors: contributors,
			Flow:         a.opts.Flow.Compute(b.tickets, a.opts.AsOf),
		})
	}
	return teams
}

// rank orders contributors by the headline metric descending, with
// canonical name ascending as the tiebreak for reproducible output.
func (a *Aggregator) rank(contributors map[string]*domain.ContributorSummary) []string {
	names := make([]string, 0, len(contributors))
	for name := range contributors {
		names = append(names, name)
	}
	metric := func(name string) int {
		cs := contributors[name]
		if a.opts.Headline == domain.HeadlineTickets {
			return cs.TicketCount()
		}
		return cs.PRCount()
	}
	sort.Slice(names, func(i, j int) bool {
		mi, mj := metric(names[i]), metric(names[j])
		if mi != mj {
			return mi > mj
		}
		return names[i] < names[j]
	})
	return names
}
