package identity

import (
	"sort"

	"github.com/mkurata/teampulse/internal/domain"
)

// Resolver maps raw source identities (emails, usernames) to canonical
// contributor identities. Built once per report run from the configured
// mapping table and immutable afterwards.
//
// Unmapped identities are kept by default and displayed under the raw
// identity, matching how reports historically showed contributors who
// were missing from the team roster. Set dropUnmapped to exclude them
// from all aggregation instead.
type Resolver struct {
	byRaw        map[string]*domain.ContributorIdentity
	dropUnmapped bool
}

// NewResolver builds a resolver from a raw-identity-to-display-name
// mapping. Several raw identities may share one display name.
func NewResolver(mapping map[string]string, dropUnmapped bool) *Resolver {
	byName := make(map[string]*domain.ContributorIdentity)
	for raw, name := range mapping {
		if raw == "" || name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			id = &domain.ContributorIdentity{Name: name}
			byName[name] = id
		}
		id.RawIdentities = append(id.RawIdentities, raw)
	}
	byRaw := make(map[string]*domain.ContributorIdentity, len(mapping))
	for _, id := range byName {
		sort.Strings(id.RawIdentities)
		for _, raw := range id.RawIdentities {
			byRaw[raw] = id
		}
	}
	return &Resolver{byRaw: byRaw, dropUnmapped: dropUnmapped}
}

// Resolve returns the canonical identity for a raw identity. The second
// return value is false when the identity is unmapped and the drop
// policy is in effect, or when the raw identity is empty.
func (r *Resolver) Resolve(rawIdentity string) (domain.ContributorIdentity, bool) {
	if rawIdentity == "" {
		return domain.ContributorIdentity{}, false
	}
	if id, ok := r.byRaw[rawIdentity]; ok {
		return *id, true
	}
	if r.dropUnmapped {
		return domain.ContributorIdentity{}, false
	}
	return domain.ContributorIdentity{
		Name:          rawIdentity,
		RawIdentities: []string{rawIdentity},
	}, true
}

// DisplayName resolves a raw identity to its display name, falling back
// to the raw identity itself under the keep policy.
func (r *Resolver) DisplayName(rawIdentity string) string {
	id, ok := r.Resolve(rawIdentity)
	if !ok {
		return ""
	}
	return id.Name
}
