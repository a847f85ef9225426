// Package categorize assigns tickets to team categories using ordered
// rule matching over components, projects, and keywords.
package categorize

import (
	"strings"

	"github.com/mkurata/teampulse/internal/domain"
)

// Categorize returns the names of every rule the ticket matches, in
// configured rule order. Matching is many-to-many: every rule is
// evaluated and a ticket may land in zero, one, or several categories.
// A rule matches when any of its configured dimensions intersects the
// ticket's corresponding attribute.
func Categorize(ticket *domain.TicketDetail, rules []domain.CategoryRule) []string {
	if ticket == nil {
		return nil
	}
	var matched []string
	for _, rule := range rules {
		if Matches(ticket, rule) {
			matched = append(matched, rule.Name)
		}
	}
	return matched
}

// Buckets is Categorize with the sentinel bucket applied: tickets
// matching no rule land in "Uncategorized" so reports never silently
// drop them.
func Buckets(ticket *domain.TicketDetail, rules []domain.CategoryRule) []string {
	matched := Categorize(ticket, rules)
	if len(matched) == 0 {
		return []string{domain.UncategorizedBucket}
	}
	return matched
}

// Matches reports whether the ticket satisfies a single rule
func Matches(ticket *domain.TicketDetail, rule domain.CategoryRule) bool {
	for _, kw := range rule.Keywords {
		if keywordMatches(ticket, kw) {
			return true
		}
	}
	for _, comp := range rule.Components {
		for _, tc := range ticket.Components {
			if strings.EqualFold(comp, tc) {
				return true
			}
		}
	}
	for _, proj := range rule.Projects {
		if strings.EqualFold(proj, ticket.Project) {
			return true
		}
	}
	return false
}

// keywordMatches checks a single rule keyword against the ticket's
// keyword set. A multi-word keyword matches when all of its tokens are
// present.
func keywordMatches(ticket *domain.TicketDetail, keyword string) bool {
	tokens := strings.Fields(strings.ToLower(keyword))
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !hasKeyword(ticket.Keywords, tok) {
			return false
		}
	}
	return true
}

func hasKeyword(keywords []string, token string) bool {
	for _, k := range keywords {
		if k == token {
			return true
		}
	}
	return false
}
