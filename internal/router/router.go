// Package router implements the supervisor state machine that dispatches
// conversation turns to specialized workers.
package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/mfriebe/claimpilot/internal/session"
	"github.com/mfriebe/claimpilot/internal/stream"
	"github.com/mfriebe/claimpilot/internal/team"
)

// Runner executes one worker over a history snapshot and returns its raw
// execution trace.
type Runner interface {
	Name() string
	Run(ctx context.Context, history []session.Message) []stream.Chunk
}

// Result is what a turn returns to the caller. Response is always a
// non-empty natural-language string.
type Result struct {
	ThreadID string
	Response string
	Resource *stream.Resource
	Hops     int
}

// Orchestrator handles one conversation turn. Implementations are selected
// once at startup and never branched on per call.
type Orchestrator interface {
	Handle(ctx context.Context, prompt, threadID string) (*Result, error)
}

// Decision is the outcome of one supervisor transition.
type Decision struct {
	Worker    string
	Terminate bool
}

// noWorkerText covers the degenerate turn where no worker could run at all.
const noWorkerText = "I could not process this request right now. Please try again."

// Decide computes the next routing step from history alone. seen is derived
// from the assistant messages produced since the latest user message, so a
// worker runs at most once per turn while staying selectable across turns.
func Decide(history []session.Message, t *team.Team, matchers map[string]Matcher, maxHops int) Decision {
	userText, seen := turnState(history)

	hopCounted := 0
	for name := range seen {
		if team.IsHopCounted(name) {
			hopCounted++
		}
	}
	if hopCounted >= maxHops && !seen[t.Fallback] {
		return Decision{Worker: t.Fallback}
	}

	for _, w := range t.Workers {
		if w.Name == t.Fallback || seen[w.Name] {
			continue
		}
		m := matchers[w.Name]
		if m != nil && m.Match(userText) {
			return Decision{Worker: w.Name}
		}
	}

	if !seen[t.Fallback] {
		return Decision{Worker: t.Fallback}
	}
	return Decision{Terminate: true}
}

// turnState extracts the latest user message and the set of workers that
// already produced a tagged message in the current turn.
func turnState(history []session.Message) (string, map[string]bool) {
	lastUser := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			lastUser = i
			break
		}
	}

	var userText string
	if lastUser >= 0 {
		userText = history[lastUser].Content
	}

	seen := make(map[string]bool)
	for i := lastUser + 1; i < len(history); i++ {
		m := history[i]
		if m.Role == "assistant" && m.AuthoredBy != "" {
			seen[m.AuthoredBy] = true
		}
	}
	return userText, seen
}

// Supervisor is the routing orchestrator. It owns no conversation state;
// everything it needs per turn is derived from the session store.
type Supervisor struct {
	mu       sync.RWMutex
	team     *team.Team
	matchers map[string]Matcher
	runners  map[string]Runner

	store   *session.Store
	maxHops int
	logger  *logging.Logger

	// OnDispatch fires before a worker runs; OnTurnEnd after the turn
	// terminated. Both are optional.
	OnDispatch func(threadID, worker string)
	OnTurnEnd  func(threadID, response string, hops int)
}

// NewSupervisor creates the routing orchestrator for a team.
func NewSupervisor(t *team.Team, runners map[string]Runner, store *session.Store, maxHops int) *Supervisor {
	return &Supervisor{
		team:     t,
		matchers: Matchers(t),
		runners:  runners,
		store:    store,
		maxHops:  maxHops,
		logger:   logging.New().WithComponent("supervisor"),
	}
}

// ReplaceTeam swaps the roster, matchers and runners atomically. Used by
// the team file hot reload; in-flight turns keep the snapshot they started
// with for at most one transition.
func (s *Supervisor) ReplaceTeam(t *team.Team, runners map[string]Runner) {
	s.mu.Lock()
	s.team = t
	s.matchers = Matchers(t)
	s.runners = runners
	s.mu.Unlock()
}

func (s *Supervisor) snapshot() (*team.Team, map[string]Matcher, map[string]Runner) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.team, s.matchers, s.runners
}

// Handle runs one conversation turn: append the user message, then select
// and run workers until the state machine terminates.
func (s *Supervisor) Handle(ctx context.Context, prompt, threadID string) (*Result, error) {
	conv := s.store.Get(threadID)
	s.store.Append(conv.ID, session.Message{Role: "user", Content: prompt})

	ctx, span := startTurnSpan(ctx, conv.ID)
	start := time.Now()

	var (
		response string
		resource *stream.Resource
		hops     int
	)

	for {
		t, matchers, runners := s.snapshot()
		decision := Decide(conv.Snapshot(), t, matchers, s.maxHops)
		if decision.Terminate {
			break
		}

		runner := runners[decision.Worker]
		if runner == nil {
			// Roster and runner table diverged (mid-reload); end the turn
			// rather than looping on an unrunnable decision.
			s.logger.Warn("no runner for routed worker", map[string]interface{}{
				"worker": decision.Worker,
			})
			break
		}

		s.logger.Info("dispatching worker", map[string]interface{}{
			"thread_id": conv.ID,
			"worker":    decision.Worker,
			"hop":       hops + 1,
		})
		if s.OnDispatch != nil {
			s.OnDispatch(conv.ID, decision.Worker)
		}

		agg := runWorker(ctx, runner, conv.Snapshot())
		s.store.Append(conv.ID, session.Message{
			Role:       "assistant",
			Content:    agg.FinalText,
			AuthoredBy: decision.Worker,
		})

		response = agg.FinalText
		if agg.Resource != nil {
			// Last resource wins across hops, same as within one trace.
			resource = agg.Resource
		}
		hops++
	}

	if strings.TrimSpace(response) == "" {
		response = noWorkerText
	}

	endTurnSpan(span, hops)
	s.logger.Info("turn complete", map[string]interface{}{
		"thread_id":   conv.ID,
		"hops":        hops,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if s.OnTurnEnd != nil {
		s.OnTurnEnd(conv.ID, response, hops)
	}

	return &Result{ThreadID: conv.ID, Response: response, Resource: resource, Hops: hops}, nil
}

// runWorker executes one hop under its own span and aggregates the trace.
func runWorker(ctx context.Context, runner Runner, history []session.Message) stream.Result {
	ctx, span := startHopSpan(ctx, runner.Name())
	chunks := runner.Run(ctx, history)
	endHopSpan(span, len(chunks))
	return stream.Aggregate(chunks)
}

// Direct routes every turn straight to the fallback worker, bypassing the
// supervisor. Used for degraded or simplified operation.
type Direct struct {
	runner Runner
	store  *session.Store
	logger *logging.Logger
}

// NewDirect creates the supervisor-less orchestrator.
func NewDirect(runner Runner, store *session.Store) *Direct {
	return &Direct{
		runner: runner,
		store:  store,
		logger: logging.New().WithComponent("direct"),
	}
}

// Handle implements Orchestrator.
func (d *Direct) Handle(ctx context.Context, prompt, threadID string) (*Result, error) {
	conv := d.store.Get(threadID)
	d.store.Append(conv.ID, session.Message{Role: "user", Content: prompt})

	ctx, span := startTurnSpan(ctx, conv.ID)
	agg := runWorker(ctx, d.runner, conv.Snapshot())
	d.store.Append(conv.ID, session.Message{
		Role:       "assistant",
		Content:    agg.FinalText,
		AuthoredBy: d.runner.Name(),
	})
	endTurnSpan(span, 1)

	return &Result{ThreadID: conv.ID, Response: agg.FinalText, Resource: agg.Resource, Hops: 1}, nil
}
