package domain

// ContributorIdentity is the canonical identity a contributor's raw
// source identities resolve to. Built once per report run from the
// configured mapping and immutable afterwards.
type ContributorIdentity struct {
	Name          string   // canonical display name
	RawIdentities []string // emails and usernames mapping to this identity
}

// CategoryRule buckets tickets into a named team category. A ticket
// matches when any configured dimension intersects the ticket's
// corresponding attribute.
type CategoryRule struct {
	Name        string
	Components  []string
	Projects    []string
	Keywords    []string
	Description string
}

// UncategorizedBucket is the sentinel category for tickets matching no rule
const UncategorizedBucket = "Uncategorized"
