// Package normalize converts raw per-source records into the uniform
// domain record shape. Adapters are pure functions with no I/O; all
// timestamps come out in UTC.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
)

// timeLayouts are tried in order when parsing source timestamps. Jira
// emits zone offsets without a colon; date-only values mean midnight UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func parseOptionalTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil
	}
	return &t
}

// ExtractKeywords tokenizes summary and description into a sorted,
// de-duplicated set of lowercased words for keyword rule matching.
func ExtractKeywords(summary, description string) []string {
	text := strings.ToLower(summary + " " + description)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		seen[f] = struct{}{}
	}
	keywords := make([]string, 0, len(seen))
	for k := range seen {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// Ticket normalizes a raw issue-tracker ticket. The assignee may be
// empty: unassigned tickets still count toward team categories.
func Ticket(raw RawTicket) (*domain.Record, error) {
	if raw.Key == "" {
		return nil, apperrors.NewMalformedRecordError("?", "missing ticket key")
	}
	created, err := parseTime(raw.Created)
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(raw.Key, "missing or invalid created timestamp")
	}
	updated, err := parseTime(raw.Updated)
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(raw.Key, "missing or invalid updated timestamp")
	}

	history := make([]domain.StatusTransition, 0, len(raw.Transitions))
	for _, tr := range raw.Transitions {
		at, err := parseTime(tr.At)
		if err != nil || tr.ToStatus == "" {
			continue
		}
		history = append(history, domain.StatusTransition{Status: tr.ToStatus, EnteredAt: at})
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].EnteredAt.Before(history[j].EnteredAt)
	})

	return &domain.Record{
		ID:            raw.Key,
		Kind:          domain.SourceTicket,
		Actor:         raw.Assignee,
		RepoOrProject: raw.Project,
		CreatedAt:     created,
		UpdatedAt:     updated,
		ClosedAt:      parseOptionalTime(raw.Resolved),
		Ticket: &domain.TicketDetail{
			Key:           raw.Key,
			Summary:       raw.Summary,
			Status:        raw.Status,
			StatusHistory: history,
			Assignee:      raw.Assignee,
			Components:    raw.Components,
			Project:       raw.Project,
			Keywords:      ExtractKeywords(raw.Summary, raw.Description),
		},
	}, nil
}

// PullRequest normalizes a raw pull request
func PullRequest(raw RawPullRequest) (*domain.Record, error) {
	id := fmt.Sprintf("%s#%d", raw.Repo, raw.Number)
	if raw.Author == "" {
		return nil, apperrors.NewMalformedRecordError(id, "missing author")
	}
	created, err := parseTime(raw.CreatedAt)
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(id, "missing or invalid created timestamp")
	}
	updated := created
	if t := parseOptionalTime(raw.UpdatedAt); t != nil {
		updated = *t
	}

	mergedAt := parseOptionalTime(raw.MergedAt)
	state := domain.PRStateOpen
	switch {
	case raw.Merged || mergedAt != nil:
		state = domain.PRStateMerged
	case strings.EqualFold(raw.State, "closed"):
		state = domain.PRStateClosed
	}

	reviewers := make([]string, 0, len(raw.Reviews))
	seen := make(map[string]struct{})
	for _, rev := range raw.Reviews {
		if rev.Reviewer == "" || rev.Reviewer == raw.Author {
			continue
		}
		if _, ok := seen[rev.Reviewer]; ok {
			continue
		}
		seen[rev.Reviewer] = struct{}{}
		reviewers = append(reviewers, rev.Reviewer)
	}
	sort.Strings(reviewers)

	commentAuthors := make([]string, 0, len(raw.ReviewComments))
	for _, c := range raw.ReviewComments {
		if c.Author != "" {
			commentAuthors = append(commentAuthors, c.Author)
		}
	}

	return &domain.Record{
		ID:            id,
		Kind:          domain.SourcePullRequest,
		Actor:         raw.Author,
		RepoOrProject: raw.Repo,
		CreatedAt:     created,
		UpdatedAt:     updated,
		ClosedAt:      parseOptionalTime(raw.ClosedAt),
		PullRequest: &domain.PullRequestDetail{
			Number:             raw.Number,
			Title:              raw.Title,
			State:              state,
			MergedAt:           mergedAt,
			FirstCommitAt:      parseOptionalTime(raw.FirstCommitAt),
			LinesAdded:         raw.Additions,
			LinesRemoved:       raw.Deletions,
			Reviewers:          reviewers,
			CommentAuthors:     commentAuthors,
			ReviewCommentCount: len(raw.ReviewComments),
		},
	}, nil
}

// Commit normalizes a raw commit
func Commit(raw RawCommit) (*domain.Record, error) {
	if raw.Sha == "" {
		return nil, apperrors.NewMalformedRecordError("?", "missing commit sha")
	}
	if raw.Author == "" {
		return nil, apperrors.NewMalformedRecordError(raw.Sha, "missing author")
	}
	authored, err := parseTime(raw.AuthoredAt)
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(raw.Sha, "missing or invalid authored timestamp")
	}

	return &domain.Record{
		ID:            raw.Sha,
		Kind:          domain.SourceCommit,
		Actor:         raw.Author,
		RepoOrProject: raw.Repo,
		CreatedAt:     authored,
		UpdatedAt:     authored,
		Commit: &domain.CommitDetail{
			Sha:          raw.Sha,
			Message:      raw.Message,
			Additions:    raw.Additions,
			Deletions:    raw.Deletions,
			FilesChanged: raw.FilesChanged,
		},
	}, nil
}

// Reviews expands the reviews on a pull request into standalone review
// records so review-given activity is attributable to the reviewer.
// Self-reviews and reviews without a usable timestamp are dropped.
func Reviews(raw RawPullRequest) []*domain.Record {
	records := make([]*domain.Record, 0, len(raw.Reviews))
	for _, rev := range raw.Reviews {
		if rev.Reviewer == "" || rev.Reviewer == raw.Author {
			continue
		}
		submitted, err := parseTime(rev.SubmittedAt)
		if err != nil {
			continue
		}
		records = append(records, &domain.Record{
			ID:            uuid.New().String(),
			Kind:          domain.SourceReview,
			Actor:         rev.Reviewer,
			RepoOrProject: raw.Repo,
			CreatedAt:     submitted,
			UpdatedAt:     submitted,
			Review: &domain.ReviewDetail{
				PRNumber: raw.Number,
				PRAuthor: raw.Author,
				State:    rev.State,
			},
		})
	}
	return records
}

// Result is the outcome of normalizing a raw batch. Malformed records
// are skipped and counted rather than failing the whole run.
type Result struct {
	Records []*domain.Record
	Skipped int
}

// Batch normalizes a complete pre-fetched collection
func Batch(raw RawBatch) Result {
	var res Result
	for _, t := range raw.Tickets {
		rec, err := Ticket(t)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	for _, pr := range raw.PullRequests {
		rec, err := PullRequest(pr)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
		res.Records = append(res.Records, Reviews(pr)...)
	}
	for _, c := range raw.Commits {
		rec, err := Commit(c)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}
