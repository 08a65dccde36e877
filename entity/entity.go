// Package entity resolves domain-entity mentions in recent conversation
// turns and repairs generic practitioner references in candidate replies.
package entity

import (
	"fmt"
	"strings"

	"github.com/careplus-labs/voice-relay/conversation"
)

// Mention maps a specialty keyword to the practitioner shown to the caller.
// The table is static: loaded once from the knowledge base and read-only
// for the life of a session.
type Mention struct {
	Keyword       string
	CanonicalName string
	CategoryLabel string
}

// Canonical returns the fully-qualified display form substituted for a
// generic reference, e.g. "Dr. Anjali Khanna (Dermatologist)".
func (m Mention) Canonical() string {
	return fmt.Sprintf("%s (%s)", m.CanonicalName, m.CategoryLabel)
}

// DefaultWindow is how many recent turns the resolver scans for a mention.
const DefaultWindow = 6

// Resolver scans conversation turns for specialty keywords.
type Resolver struct {
	table  []Mention
	window int
}

// NewResolver builds a resolver over a static mention table.
func NewResolver(table []Mention) *Resolver {
	return &Resolver{table: table, window: DefaultWindow}
}

// Resolve scans the given turns, most recent first, for the first keyword
// match. It returns false when no entity is mentioned within the window.
func (r *Resolver) Resolve(turns []conversation.Turn) (Mention, bool) {
	recent := turns
	if len(recent) > r.window {
		recent = recent[len(recent)-r.window:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		content := strings.ToLower(recent[i].Content)
		for _, m := range r.table {
			if strings.Contains(content, strings.ToLower(m.Keyword)) {
				return m, true
			}
		}
	}
	return Mention{}, false
}

// Repair substitutes the first matching generic placeholder in u with the
// mention's canonical form. The placeholder rules are ordered and exactly
// one applies per pass, which keeps repeated shaping from cascading
// substitutions. When the canonical form is already present the utterance
// is returned unchanged, and an already-resolved bare name gets its label
// appended exactly once. The rest of the sentence is preserved.
func Repair(u string, m Mention) string {
	canonical := m.Canonical()
	if indexFold(u, canonical) >= 0 {
		return u
	}

	if idx := indexFold(u, m.CanonicalName); idx >= 0 {
		return u[:idx] + canonical + u[idx+len(m.CanonicalName):]
	}

	keyword := strings.ToLower(m.Keyword)
	rules := []struct {
		pattern     string
		replacement string
	}{
		{"with a doctor", "with " + canonical},
		{"with the doctor", "with " + canonical},
		{"with doctor", "with " + canonical},
		{"the " + keyword + " doctor", canonical},
		{"with " + keyword, "with " + canonical},
		{"the doctor", canonical},
	}
	for _, rule := range rules {
		if idx := indexFold(u, rule.pattern); idx >= 0 {
			return u[:idx] + rule.replacement + u[idx+len(rule.pattern):]
		}
	}
	return u
}

// indexFold is a case-insensitive strings.Index. Byte offsets line up with
// the original string for the ASCII patterns used here.
func indexFold(s, sub string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(sub))
}
