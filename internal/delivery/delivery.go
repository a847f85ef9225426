// Package delivery computes pull request delivery metrics: lead time
// from first commit to merge and review depth, with trivial-PR
// exclusion so dependency bumps do not skew the statistics.
package delivery

import (
	"sort"
	"strings"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/flow"
	"github.com/mkurata/teampulse/internal/identity"
)

// Config carries the trivial-PR exclusion rule
type Config struct {
	TrivialLineThreshold int
	TrivialTitlePatterns []string
}

// Engine evaluates delivery metrics for one configuration
type Engine struct {
	cfg  Config
	bots *identity.BotFilter
}

// NewEngine builds a delivery engine. The bot filter screens reviewers
// and comment authors out of review depth.
func NewEngine(cfg Config, bots *identity.BotFilter) *Engine {
	return &Engine{cfg: cfg, bots: bots}
}

// IsTrivial reports whether a pull request is excluded from
// size-sensitive metrics: total changed lines under the threshold, or a
// case-insensitive title pattern match (e.g. "chore:", "bump version").
func (e *Engine) IsTrivial(pr *domain.PullRequestDetail) bool {
	if pr == nil {
		return true
	}
	if e.cfg.TrivialLineThreshold > 0 && pr.TotalChangedLines() < e.cfg.TrivialLineThreshold {
		return true
	}
	title := strings.ToLower(pr.Title)
	for _, pattern := range e.cfg.TrivialTitlePatterns {
		if pattern != "" && strings.Contains(title, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// LeadTime returns the first-commit-to-merge duration. ok is false when
// the PR does not qualify for a sample; anomalous additionally marks a
// merged PR whose timestamps are inconsistent (first commit after
// merge), which is excluded rather than yielding a negative duration.
func (e *Engine) LeadTime(pr *domain.PullRequestDetail) (sample time.Duration, ok, anomalous bool) {
	if pr == nil || pr.State != domain.PRStateMerged || pr.MergedAt == nil || pr.FirstCommitAt == nil {
		return 0, false, false
	}
	d := pr.MergedAt.Sub(*pr.FirstCommitAt)
	if d < 0 {
		return 0, false, true
	}
	return d, true, false
}

// ReviewDepth returns the distinct non-bot reviewer count and the
// non-bot review comment count for a pull request.
func (e *Engine) ReviewDepth(pr *domain.PullRequestDetail) (reviewers, comments int) {
	if pr == nil {
		return 0, 0
	}
	for _, reviewer := range pr.Reviewers {
		if !e.bots.IsBot(reviewer) {
			reviewers++
		}
	}
	for _, author := range pr.CommentAuthors {
		if !e.bots.IsBot(author) {
			comments++
		}
	}
	return reviewers, comments
}

// Compute evaluates delivery metrics over one contributor's records.
// Lead time and review depth aggregate over non-trivial merged PRs
// only.
func (e *Engine) Compute(records []*domain.Record) *domain.DeliveryMetricResult {
	result := &domain.DeliveryMetricResult{}
	for _, rec := range records {
		if rec.Kind != domain.SourcePullRequest || rec.PullRequest == nil {
			continue
		}
		pr := rec.PullRequest
		if pr.State != domain.PRStateMerged {
			continue
		}
		if e.IsTrivial(pr) {
			result.TrivialPRs++
			continue
		}
		sample, ok, anomalous := e.LeadTime(pr)
		if anomalous {
			result.Anomalies++
		}
		if ok {
			result.LeadTimeSamples = append(result.LeadTimeSamples, sample)
		}
		reviewers, comments := e.ReviewDepth(pr)
		result.ReviewerCounts = append(result.ReviewerCounts, reviewers)
		result.CommentCounts = append(result.CommentCounts, comments)
	}
	sort.Slice(result.LeadTimeSamples, func(i, j int) bool {
		return result.LeadTimeSamples[i] < result.LeadTimeSamples[j]
	})
	result.MedianLead = flow.Median(result.LeadTimeSamples)
	result.AvgLead = avgDuration(result.LeadTimeSamples)
	result.AvgReviewers = avgInt(result.ReviewerCounts)
	result.AvgComments = avgInt(result.CommentCounts)
	return result
}

func avgDuration(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return total / time.Duration(len(samples))
}

func avgInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values))
}
