package normalize

// Raw record shapes at the boundary between the fetch layer and the
// engine. Each mirrors the subset of the source API payload the engine
// needs; everything past the normalizer is typed domain data.

// RawTransition is one status change from a ticket changelog
type RawTransition struct {
	ToStatus string `json:"to_status"`
	At       string `json:"at"`
}

// RawTicket is an issue-tracker ticket as fetched
type RawTicket struct {
	Key         string          `json:"key"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Assignee    string          `json:"assignee"` // email, empty when unassigned
	Project     string          `json:"project"`
	Components  []string        `json:"components"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
	Resolved    string          `json:"resolved,omitempty"`
	Transitions []RawTransition `json:"transitions,omitempty"`
}

// RawReview is a review given on a pull request
type RawReview struct {
	Reviewer    string `json:"reviewer"`
	State       string `json:"state"`
	SubmittedAt string `json:"submitted_at"`
}

// RawComment is one review comment on a pull request
type RawComment struct {
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

// RawPullRequest is a pull request as fetched, including review data
// when review depth collection is enabled
type RawPullRequest struct {
	Repo           string       `json:"repo"`
	Number         int          `json:"number"`
	Title          string       `json:"title"`
	Author         string       `json:"author"` // login
	State          string       `json:"state"`  // open or closed
	Merged         bool         `json:"merged"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
	ClosedAt       string       `json:"closed_at,omitempty"`
	MergedAt       string       `json:"merged_at,omitempty"`
	FirstCommitAt  string       `json:"first_commit_at,omitempty"`
	Additions      int          `json:"additions"`
	Deletions      int          `json:"deletions"`
	Reviews        []RawReview  `json:"reviews,omitempty"`
	ReviewComments []RawComment `json:"review_comments,omitempty"`
}

// RawCommit is a single commit as fetched
type RawCommit struct {
	Repo         string `json:"repo"`
	Sha          string `json:"sha"`
	Author       string `json:"author"` // login, or author name when login is unknown
	Message      string `json:"message"`
	AuthoredAt   string `json:"authored_at"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	FilesChanged int    `json:"files_changed"`
}

// RawBatch is the complete pre-fetched record collection for one window
type RawBatch struct {
	Tickets      []RawTicket      `json:"tickets"`
	PullRequests []RawPullRequest `json:"pull_requests"`
	Commits      []RawCommit      `json:"commits"`
}
