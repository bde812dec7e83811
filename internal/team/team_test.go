package team

import (
	"testing"
)

func TestParse_Valid(t *testing.T) {
	data := []byte(`
fallback: general
workers:
  - name: triage_worker
    role: mail triage
    tools: [mcp_mail_list_messages]
    intent:
      keywords: [mail, posteingang]
  - name: general
    role: catch-all
`)
	team, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(team.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(team.Workers))
	}
	if team.Workers[0].StepCap != DefaultStepCap {
		t.Errorf("step cap default not applied: %d", team.Workers[0].StepCap)
	}
	if _, ok := team.Get("triage_worker"); !ok {
		t.Error("Get failed for triage_worker")
	}
}

func TestParse_RejectsBadRosters(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty roster", `fallback: general`},
		{"missing fallback", "workers:\n  - name: a\n"},
		{"unknown fallback", "fallback: nope\nworkers:\n  - name: a\n"},
		{"duplicate name", "fallback: a\nworkers:\n  - name: a\n  - name: a\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestDefault_Roster(t *testing.T) {
	team := Default()
	if team.Fallback != "general" {
		t.Errorf("unexpected fallback: %s", team.Fallback)
	}
	for _, name := range []string{"triage_worker", "claims_data_worker", "general"} {
		if _, ok := team.Get(name); !ok {
			t.Errorf("default team missing %s", name)
		}
	}
	if IsHopCounted("general") {
		t.Error("fallback worker must not count against the hop limit")
	}
	if !IsHopCounted("triage_worker") {
		t.Error("triage_worker must count against the hop limit")
	}
}
