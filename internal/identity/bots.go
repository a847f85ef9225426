// Package identity maps raw source identities to canonical contributors
// and screens out bot accounts before any aggregation.
package identity

import (
	"regexp"
	"strings"
)

// BotFilter matches raw actor identities against configured bot
// patterns. Each pattern is tried as a case-insensitive regular
// expression; a pattern that does not compile falls back to plain
// case-insensitive substring matching.
type BotFilter struct {
	exclude    bool
	substrings []string
	regexps    []*regexp.Regexp
}

// NewBotFilter builds a filter from configured patterns. When exclude
// is false the filter keeps everything.
func NewBotFilter(patterns []string, exclude bool) *BotFilter {
	f := &BotFilter{exclude: exclude}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if re, err := regexp.Compile("(?i)" + p); err == nil {
			f.regexps = append(f.regexps, re)
		} else {
			f.substrings = append(f.substrings, strings.ToLower(p))
		}
	}
	return f
}

// IsBot reports whether the raw identity matches any bot pattern,
// regardless of the exclude flag.
func (f *BotFilter) IsBot(rawIdentity string) bool {
	if rawIdentity == "" {
		return false
	}
	lowered := strings.ToLower(rawIdentity)
	for _, s := range f.substrings {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	for _, re := range f.regexps {
		if re.MatchString(rawIdentity) {
			return true
		}
	}
	return false
}

// Keep reports whether a record from this actor should enter the
// pipeline. Runs before contributor resolution so bot identities never
// take a canonical-identity slot.
func (f *BotFilter) Keep(rawIdentity string) bool {
	if !f.exclude {
		return true
	}
	return !f.IsBot(rawIdentity)
}
