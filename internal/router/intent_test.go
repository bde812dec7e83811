package router

import (
	"testing"

	"github.com/mfriebe/claimpilot/internal/team"
)

func TestKeywordMatcher_CaseInsensitive(t *testing.T) {
	m := KeywordMatcher{Keywords: []string{"posteingang", "E-Mail"}}
	if !m.Match("Was steht in der neuesten e-mail?") {
		t.Error("case-insensitive match failed")
	}
	if m.Match("wie wird das wetter morgen?") {
		t.Error("false positive")
	}
}

func TestCooccurrenceMatcher(t *testing.T) {
	m := CooccurrenceMatcher{
		Keywords: []string{"schadenfälle"},
		Hints:    []string{"liste"},
	}
	if !m.Match("liste der schadenfälle") {
		t.Error("co-occurrence match failed")
	}
	if m.Match("der schadenfälle wegen") {
		t.Error("keyword without hint must not match")
	}
	if m.Match("eine liste bitte") {
		t.Error("hint without keyword must not match")
	}
}

func TestMatcherFor(t *testing.T) {
	if MatcherFor(team.Intent{}).Match("anything") {
		t.Error("empty intent must never match")
	}
	m := MatcherFor(team.Intent{Keywords: []string{"mail"}})
	if _, ok := m.(KeywordMatcher); !ok {
		t.Errorf("expected KeywordMatcher, got %T", m)
	}
	m = MatcherFor(team.Intent{Keywords: []string{"schaden"}, Hints: []string{"liste"}})
	if _, ok := m.(CooccurrenceMatcher); !ok {
		t.Errorf("expected CooccurrenceMatcher, got %T", m)
	}
}
