package domain

import "time"

// SourceKind represents the kind of normalized activity record
type SourceKind string

const (
	SourceTicket      SourceKind = "ticket"
	SourcePullRequest SourceKind = "pull_request"
	SourceCommit      SourceKind = "commit"
	SourceReview      SourceKind = "review"
)

// PRState represents the lifecycle state of a pull request
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateMerged PRState = "merged"
	PRStateClosed PRState = "closed"
)

// StatusTransition is one entry in a ticket's status history.
// Entries are kept in chronological order.
type StatusTransition struct {
	Status    string
	EnteredAt time.Time
}

// Record is a normalized activity record from either data source.
// Exactly one of the kind-specific detail pointers is set, matching Kind.
// All timestamps are UTC.
type Record struct {
	ID            string
	Kind          SourceKind
	Actor         string // raw source identity (email or username)
	RepoOrProject string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time

	Ticket      *TicketDetail
	PullRequest *PullRequestDetail
	Commit      *CommitDetail
	Review      *ReviewDetail
}

// TicketDetail holds issue-tracker specific fields
type TicketDetail struct {
	Key           string
	Summary       string
	Status        string
	StatusHistory []StatusTransition // may be empty when the source exposes no changelog
	Assignee      string             // raw identity, empty when unassigned
	Components    []string
	Project       string
	Keywords      []string // lowercased tokens from summary and description
}

// PullRequestDetail holds source-hosting specific fields for a pull request
type PullRequestDetail struct {
	Number             int
	Title              string
	State              PRState
	MergedAt           *time.Time
	FirstCommitAt      *time.Time
	LinesAdded         int
	LinesRemoved       int
	Reviewers          []string // raw identities, excluding the author
	CommentAuthors     []string // one raw identity per review comment
	ReviewCommentCount int
}

// CommitDetail holds fields specific to a single commit
type CommitDetail struct {
	Sha          string
	Message      string
	Additions    int
	Deletions    int
	FilesChanged int
}

// ReviewDetail holds fields for a review given on someone else's pull request
type ReviewDetail struct {
	PRNumber int
	PRAuthor string // raw identity of the pull request author
	State    string // approved, changes_requested, commented
}

// TotalChangedLines returns additions plus removals for a pull request
func (p *PullRequestDetail) TotalChangedLines() int {
	return p.LinesAdded + p.LinesRemoved
}
