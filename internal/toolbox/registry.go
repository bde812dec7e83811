// Package toolbox loads tool handles from providers and controls which
// tools each worker may see.
package toolbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
)

// Tool is a named external capability with a JSON input/output contract.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// Descriptor is the immutable, model-facing view of a tool.
type Descriptor struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Provider supplies a batch of tools at startup.
type Provider interface {
	Name() string
	Tools(ctx context.Context) ([]Tool, error)
}

// defaultCallTimeout caps a single tool invocation so a stalled external
// tool cannot wedge a conversation.
const defaultCallTimeout = 60 * time.Second

// Registry holds all loaded tools. It is populated once at startup and
// read-only afterwards, so lookups need no locking on the hot path.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	order       []string
	callTimeout time.Duration
	logger      *logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:       make(map[string]Tool),
		callTimeout: defaultCallTimeout,
		logger:      logging.New().WithComponent("toolbox"),
	}
}

// SetCallTimeout overrides the per-invocation timeout.
func (r *Registry) SetCallTimeout(d time.Duration) {
	if d > 0 {
		r.callTimeout = d
	}
}

// Register adds a tool. Registering a duplicate name is an error because
// tool identity is the routing key for every invocation.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool with empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// LoadProviders registers every tool from each provider. A failing provider
// is skipped with a warning so degraded capability never blocks startup.
func (r *Registry) LoadProviders(ctx context.Context, providers ...Provider) {
	for _, p := range providers {
		tools, err := p.Tools(ctx)
		if err != nil {
			r.logger.Warn("tool provider unavailable, skipping", map[string]interface{}{
				"provider": p.Name(),
				"error":    err.Error(),
			})
			continue
		}
		loaded := 0
		for _, t := range tools {
			if err := r.Register(t); err != nil {
				r.logger.Warn("skipping tool", map[string]interface{}{
					"provider": p.Name(),
					"tool":     t.Name(),
					"error":    err.Error(),
				})
				continue
			}
			loaded++
		}
		r.logger.Info("tool provider loaded", map[string]interface{}{
			"provider": p.Name(),
			"tools":    loaded,
		})
	}
}

// Get returns a tool by name, or nil.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Descriptors returns all tool descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return out
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Call invokes a tool by name under the registry's call timeout. The
// returned error covers unknown tools, tool failures and timeouts alike;
// callers convert it to an observation rather than failing the turn.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool := r.Get(name)
	if tool == nil {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	ctx, cancel := r.applyCallTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Call(ctx, args)
	if err != nil {
		r.logger.Debug("tool call failed", map[string]interface{}{
			"tool":        name,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err.Error(),
		})
		return "", err
	}
	return result, nil
}

// applyCallTimeout adds the registry timeout unless the context already
// carries a shorter deadline.
func (r *Registry) applyCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < r.callTimeout {
			return ctx, nil
		}
	}
	return context.WithTimeout(ctx, r.callTimeout)
}

// ToolDefs converts descriptors to the model-facing tool definition type.
func ToolDefs(descriptors []Descriptor) []llm.ToolDef {
	defs := make([]llm.ToolDef, len(descriptors))
	for i, d := range descriptors {
		defs[i] = llm.ToolDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		}
	}
	return defs
}
