package toolbox

import (
	"github.com/vinayprograms/agentkit/logging"
)

// Filter restricts the tool surface per worker role. Allow-lists narrow,
// the block-list always wins, and an allow-list that narrows to nothing
// falls open to the full unblocked set so a misconfigured worker is never
// left toolless.
type Filter struct {
	allow   map[string][]string
	blocked map[string]bool
	logger  *logging.Logger
}

// NewFilter builds a filter from per-role allow-lists and a process-wide
// block-list.
func NewFilter(allow map[string][]string, blocked []string) *Filter {
	blockedSet := make(map[string]bool, len(blocked))
	for _, name := range blocked {
		blockedSet[name] = true
	}
	return &Filter{
		allow:   allow,
		blocked: blockedSet,
		logger:  logging.New().WithComponent("permissions"),
	}
}

// Resolve returns the tools the given role may use, preserving the order
// of all.
func (f *Filter) Resolve(role string, all []Descriptor) []Descriptor {
	unblocked := make([]Descriptor, 0, len(all))
	for _, d := range all {
		if !f.blocked[d.Name] {
			unblocked = append(unblocked, d)
		}
	}

	allowed, hasAllowList := f.allow[role]
	if !hasAllowList || len(allowed) == 0 {
		return unblocked
	}

	allowSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowSet[name] = true
	}

	subset := make([]Descriptor, 0, len(unblocked))
	for _, d := range unblocked {
		if allowSet[d.Name] {
			subset = append(subset, d)
		}
	}

	if len(subset) == 0 {
		// Fail open: an allow-list that intersects the block-list to
		// nothing indicates misconfiguration, not intent.
		f.logger.Warn("allow-list resolved to zero tools, falling back to full unblocked set", map[string]interface{}{
			"role":       role,
			"allow_list": allowed,
		})
		return unblocked
	}
	return subset
}

// Blocked reports whether a tool name is on the block-list.
func (f *Filter) Blocked(name string) bool {
	return f.blocked[name]
}
