package router

import (
	"strings"

	"github.com/mfriebe/claimpilot/internal/team"
)

// Matcher decides whether a prompt falls into a worker's intent. The seam
// is deliberately this narrow so the keyword heuristics can be swapped for
// a classifier without touching the routing state machine.
type Matcher interface {
	Match(text string) bool
}

// KeywordMatcher matches on any case-insensitive substring hit.
type KeywordMatcher struct {
	Keywords []string
}

// Match implements Matcher.
func (m KeywordMatcher) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range m.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// CooccurrenceMatcher requires a keyword hit AND a hint hit. A bare
// mention of a domain term without a retrieval hint does not select the
// worker, which keeps false positives off the data workers.
type CooccurrenceMatcher struct {
	Keywords []string
	Hints    []string
}

// Match implements Matcher.
func (m CooccurrenceMatcher) Match(text string) bool {
	return KeywordMatcher{m.Keywords}.Match(text) && KeywordMatcher{m.Hints}.Match(text)
}

// neverMatcher is used for workers without intent rules; they are only
// reachable as the fallback or by the hop-limit rule.
type neverMatcher struct{}

func (neverMatcher) Match(string) bool { return false }

// MatcherFor builds the matcher for a worker's intent definition.
func MatcherFor(in team.Intent) Matcher {
	switch {
	case len(in.Keywords) == 0:
		return neverMatcher{}
	case len(in.Hints) == 0:
		return KeywordMatcher{Keywords: in.Keywords}
	default:
		return CooccurrenceMatcher{Keywords: in.Keywords, Hints: in.Hints}
	}
}

// Matchers builds the matcher table for a whole team.
func Matchers(t *team.Team) map[string]Matcher {
	out := make(map[string]Matcher, len(t.Workers))
	for _, w := range t.Workers {
		out[w.Name] = MatcherFor(w.Intent)
	}
	return out
}
