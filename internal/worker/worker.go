// Package worker runs one specialized think/act/observe loop against the
// tool registry and an LLM provider.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/mfriebe/claimpilot/internal/session"
	"github.com/mfriebe/claimpilot/internal/stream"
	"github.com/mfriebe/claimpilot/internal/team"
	"github.com/mfriebe/claimpilot/internal/toolbox"
)

// modelFailureText is the user-facing fallback when the LLM call itself
// fails. Raw provider errors never reach the user.
const modelFailureText = "I ran into a problem while working on this request. Please try again in a moment."

// stepCapText closes a trace that hit the step ceiling without a final
// narrative answer.
const stepCapText = "I had to stop before fully completing the request. The partial results are above."

// Agent executes one worker definition. It is stateless between runs;
// everything it needs arrives with the history.
type Agent struct {
	def      team.Worker
	provider llm.Provider
	registry *toolbox.Registry
	filter   *toolbox.Filter
	logger   *logging.Logger
}

// New creates a worker agent.
func New(def team.Worker, provider llm.Provider, registry *toolbox.Registry, filter *toolbox.Filter) *Agent {
	return &Agent{
		def:      def,
		provider: provider,
		registry: registry,
		filter:   filter,
		logger:   logging.New().WithComponent("worker." + def.Name),
	}
}

// Name returns the worker's roster name.
func (a *Agent) Name() string { return a.def.Name }

// Run executes the bounded tool-call loop over the given history and
// returns the raw execution trace. Steps are strictly sequential because
// each depends on the previous tool observation. Tool failures become
// observations; model failures end the loop with a fallback message. Run
// never returns an error to the caller.
func (a *Agent) Run(ctx context.Context, history []session.Message) []stream.Chunk {
	allowed := a.filter.Resolve(a.def.Name, a.registry.Descriptors())
	toolDefs := toolbox.ToolDefs(allowed)
	messages := a.buildMessages(history)

	var trace []stream.Chunk
	start := time.Now()

	for step := 0; step < a.def.StepCap; step++ {
		resp, err := a.provider.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    toolDefs,
		})
		if err != nil {
			a.logger.Warn("model call failed", map[string]interface{}{
				"step":  step,
				"error": err.Error(),
			})
			trace = append(trace, stream.Chunk{Kind: stream.AgentText, Text: modelFailureText})
			return trace
		}

		if resp.Content != "" {
			trace = append(trace, stream.Chunk{Kind: stream.AgentText, Text: resp.Content})
		}

		// No tool calls means the worker produced its final answer.
		if len(resp.ToolCalls) == 0 {
			a.logger.Debug("worker complete", map[string]interface{}{
				"steps":       step + 1,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			return trace
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			trace = append(trace, stream.Chunk{Kind: stream.ToolCall, Tool: tc.Name})
			observation := a.invokeTool(ctx, allowed, tc)
			trace = append(trace, stream.Chunk{Kind: stream.ToolOutput, Tool: tc.Name, Text: observation})
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    observation,
			})
		}
	}

	a.logger.Warn("step cap reached", map[string]interface{}{"cap": a.def.StepCap})
	trace = append(trace, stream.Chunk{Kind: stream.AgentText, Text: "\n" + stepCapText})
	return trace
}

// invokeTool dispatches one tool call and converts any failure into an
// observation string the model can react to.
func (a *Agent) invokeTool(ctx context.Context, allowed []toolbox.Descriptor, tc llm.ToolCallResponse) string {
	if !toolAllowed(allowed, tc.Name) {
		// The model asked for a tool outside its resolved surface.
		return fmt.Sprintf("Error: tool %s is not available", tc.Name)
	}

	result, err := a.registry.Call(ctx, tc.Name, tc.Args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if result == "" {
		return "(no output)"
	}
	return result
}

// buildMessages prepends the worker's system prompt and maps conversation
// history to model messages. Worker attribution is folded into the content
// so later workers can see who found what.
func (a *Agent) buildMessages(history []session.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	if a.def.Prompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: a.def.Prompt})
	}
	for _, m := range history {
		content := m.Content
		if m.AuthoredBy != "" && m.AuthoredBy != a.def.Name {
			content = fmt.Sprintf("[%s] %s", m.AuthoredBy, content)
		}
		messages = append(messages, llm.Message{Role: m.Role, Content: content})
	}
	return messages
}

func toolAllowed(allowed []toolbox.Descriptor, name string) bool {
	for _, d := range allowed {
		if d.Name == name {
			return true
		}
	}
	return false
}
