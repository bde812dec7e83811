// Package team defines the worker roster and its intent routing rules.
package team

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkerSuffix marks workers that count against the hop limit. The fallback
// worker deliberately does not carry it.
const WorkerSuffix = "_worker"

// Intent describes when a worker should be selected for a turn.
type Intent struct {
	// Keywords match on any case-insensitive substring hit.
	Keywords []string `yaml:"keywords"`
	// Hints, when present, must co-occur with a keyword. This avoids
	// selecting a data worker on a bare mention of a domain term.
	Hints []string `yaml:"hints"`
}

// Worker is one specialized member of the team.
type Worker struct {
	Name    string   `yaml:"name"`
	Role    string   `yaml:"role"`    // Short human-readable purpose
	Prompt  string   `yaml:"prompt"`  // System prompt
	Tools   []string `yaml:"tools"`   // Allow-list of tool names; empty means all unblocked tools
	StepCap int      `yaml:"step_cap"`
	Profile string   `yaml:"profile"` // LLM profile name; empty uses the default provider
	Intent  Intent   `yaml:"intent"`
}

// Team is the ordered worker roster. Routing evaluates workers in roster
// order; the fallback worker handles everything nobody else claimed.
type Team struct {
	Workers  []Worker `yaml:"workers"`
	Fallback string   `yaml:"fallback"` // Name of the catch-all worker
}

// DefaultStepCap bounds a worker's tool-call loop when step_cap is unset.
const DefaultStepCap = 8

// Load reads a team definition from a YAML file.
func Load(path string) (*Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading team file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML team definition and validates it.
func Parse(data []byte) (*Team, error) {
	var t Team
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing team definition: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Team) validate() error {
	if len(t.Workers) == 0 {
		return fmt.Errorf("team has no workers")
	}
	seen := make(map[string]bool)
	for _, w := range t.Workers {
		if w.Name == "" {
			return fmt.Errorf("worker without a name")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate worker name: %s", w.Name)
		}
		seen[w.Name] = true
	}
	if t.Fallback == "" {
		return fmt.Errorf("team has no fallback worker")
	}
	if !seen[t.Fallback] {
		return fmt.Errorf("fallback worker %q is not in the roster", t.Fallback)
	}
	return nil
}

func (t *Team) applyDefaults() {
	for i := range t.Workers {
		if t.Workers[i].StepCap <= 0 {
			t.Workers[i].StepCap = DefaultStepCap
		}
	}
}

// Get returns the worker with the given name.
func (t *Team) Get(name string) (Worker, bool) {
	for _, w := range t.Workers {
		if w.Name == name {
			return w, true
		}
	}
	return Worker{}, false
}

// Names returns the roster names in order.
func (t *Team) Names() []string {
	names := make([]string, len(t.Workers))
	for i, w := range t.Workers {
		names[i] = w.Name
	}
	return names
}

// IsHopCounted reports whether a worker name counts against the hop limit.
func IsHopCounted(name string) bool {
	return strings.HasSuffix(name, WorkerSuffix)
}

// Default returns the built-in three-worker team for the claims assistant:
// mail triage, claims data retrieval, and a general catch-all.
func Default() *Team {
	t := &Team{
		Fallback: "general",
		Workers: []Worker{
			{
				Name: "triage_worker",
				Role: "mail and calendar triage",
				Prompt: "You triage the user's inbox and calendar. Use the available " +
					"tools to read messages and appointments, then summarize what " +
					"matters. Answer in the language of the user's question. Never " +
					"invent message contents.",
				Tools:   []string{"mcp_mail_list_messages", "mcp_mail_read_message", "mcp_calendar_list_events"},
				Profile: "fast",
				Intent: Intent{
					Keywords: []string{
						"mail", "e-mail", "email", "nachricht", "posteingang",
						"inbox", "kalender", "termin", "calendar", "appointment",
					},
				},
			},
			{
				Name: "claims_data_worker",
				Role: "claims data retrieval",
				Prompt: "You retrieve structured insurance claim records. Use the " +
					"available tools to query claims, contracts and damage reports, " +
					"and present the result compactly. Answer in the language of " +
					"the user's question.",
				Tools: []string{"mcp_claims_query", "mcp_claims_get_record", "mcp_sheets_read_range"},
				Intent: Intent{
					Keywords: []string{
						"schaden", "schadenfall", "schadenfälle", "schadensfall",
						"vertrag", "police", "claim", "claims",
					},
					Hints: []string{
						"liste", "zeige", "alle", "übersicht", "auswertung",
						"tabelle", "list", "show", "overview",
					},
				},
			},
			{
				Name: "general",
				Role: "general assistance and consolidation",
				Prompt: "You are the user's general assistant. Consolidate what the " +
					"specialist steps found into one clear answer, or handle the " +
					"request directly if no specialist ran. Answer in the language " +
					"of the user's question.",
			},
		},
	}
	t.applyDefaults()
	return t
}
