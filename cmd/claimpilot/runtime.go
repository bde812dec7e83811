// Package main provides runtime assembly for the orchestration engine.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/agentkit/mcp"
	"github.com/vinayprograms/agentkit/telemetry"

	"github.com/mfriebe/claimpilot/internal/bridge"
	"github.com/mfriebe/claimpilot/internal/config"
	"github.com/mfriebe/claimpilot/internal/router"
	"github.com/mfriebe/claimpilot/internal/session"
	"github.com/mfriebe/claimpilot/internal/team"
	"github.com/mfriebe/claimpilot/internal/toolbox"
	"github.com/mfriebe/claimpilot/internal/worker"
)

// runtime wires configuration, providers, tools, the session store and the
// orchestrator together.
type runtime struct {
	cfg      *config.Config
	teamFile string

	provider  llm.Provider
	profiles  map[string]llm.Provider
	registry  *toolbox.Registry
	store     *session.Store
	roster    *team.Team
	sup       *router.Supervisor
	orch      router.Orchestrator
	telem     telemetry.Exporter
	mcpMgr    *mcp.Manager
	publisher bridge.Publisher
	logger    *logging.Logger

	closers []func()
}

// newRuntime loads configuration and resolves the team file.
func newRuntime(configPath, teamFile string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if teamFile == "" {
		teamFile = cfg.Team.File
	}
	return &runtime{
		cfg:       cfg,
		teamFile:  teamFile,
		profiles:  make(map[string]llm.Provider),
		publisher: bridge.Noop{},
		logger:    logging.New().WithComponent("runtime"),
	}, nil
}

// setup initializes all runtime components.
func (rt *runtime) setup() error {
	if err := rt.loadTeam(); err != nil {
		return err
	}
	if err := rt.createProviders(); err != nil {
		return err
	}
	if err := rt.setupTelemetry(); err != nil {
		return err
	}
	rt.setupRegistry()
	if err := rt.setupStore(); err != nil {
		return err
	}
	rt.setupEvents()
	rt.createOrchestrator()
	return nil
}

// loadTeam reads the team file, or falls back to the built-in roster.
func (rt *runtime) loadTeam() error {
	if rt.teamFile == "" {
		rt.roster = team.Default()
		return nil
	}
	t, err := team.Load(rt.teamFile)
	if err != nil {
		return fmt.Errorf("loading team: %w", err)
	}
	rt.roster = t
	return nil
}

// createProviders creates the default LLM provider plus one per profile.
func (rt *runtime) createProviders() error {
	llmProvider := rt.cfg.LLM.Provider
	if llmProvider == "" {
		llmProvider = llm.InferProviderFromModel(rt.cfg.LLM.Model)
	}
	if llmProvider == "" && rt.cfg.LLM.Model == "" {
		return fmt.Errorf("LLM model not configured")
	}

	var err error
	rt.provider, err = llm.NewProvider(llm.ProviderConfig{
		Provider:  llmProvider,
		Model:     rt.cfg.LLM.Model,
		APIKey:    rt.cfg.GetAPIKey(),
		MaxTokens: rt.cfg.LLM.MaxTokens,
		BaseURL:   rt.cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	for name, p := range rt.cfg.Profiles {
		providerName := p.Provider
		if providerName == "" {
			providerName = llm.InferProviderFromModel(p.Model)
		}
		prov, err := llm.NewProvider(llm.ProviderConfig{
			Provider:  providerName,
			Model:     p.Model,
			APIKey:    rt.cfg.GetProfileAPIKey(name),
			MaxTokens: p.MaxTokens,
			BaseURL:   p.BaseURL,
		})
		if err != nil {
			rt.logger.Warn("profile unavailable, workers fall back to the default provider", map[string]interface{}{
				"profile": name,
				"error":   err.Error(),
			})
			continue
		}
		rt.profiles[name] = prov
	}
	return nil
}

// setupTelemetry creates the telemetry exporter.
func (rt *runtime) setupTelemetry() error {
	var err error
	if rt.cfg.Telemetry.Enabled {
		rt.telem, err = telemetry.NewExporter(rt.cfg.Telemetry.Protocol, rt.cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("creating telemetry exporter: %w", err)
		}
	} else {
		rt.telem = telemetry.NewNoopExporter()
	}
	rt.addCloser(func() { rt.telem.Close() })
	return nil
}

// setupRegistry connects MCP servers and loads their tools. A failing
// server degrades capability but never blocks startup.
func (rt *runtime) setupRegistry() {
	rt.registry = toolbox.NewRegistry()

	if len(rt.cfg.MCP.Servers) == 0 {
		return
	}

	rt.mcpMgr = mcp.NewManager()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for name, serverCfg := range rt.cfg.MCP.Servers {
		err := rt.mcpMgr.Connect(ctx, name, mcp.ServerConfig{
			Command: serverCfg.Command,
			Args:    serverCfg.Args,
			Env:     serverCfg.Env,
		})
		if err != nil {
			rt.logger.Warn("failed to connect MCP server", map[string]interface{}{
				"server": name,
				"error":  err.Error(),
			})
			continue
		}
		if len(serverCfg.DeniedTools) > 0 {
			rt.mcpMgr.SetDeniedTools(name, serverCfg.DeniedTools)
		}
		rt.logger.Info("connected MCP server", map[string]interface{}{"server": name})
	}
	rt.addCloser(func() { rt.mcpMgr.Close() })

	rt.registry.LoadProviders(ctx, toolbox.NewMCPProvider(rt.mcpMgr))
}

// setupStore creates the conversation store, with optional JSONL mirroring.
func (rt *runtime) setupStore() error {
	rt.store = session.NewStore()
	if !rt.cfg.Storage.PersistConversations {
		return nil
	}
	dir := filepath.Join(rt.cfg.Storage.Path, "conversations")
	fs, err := session.NewFileStore(dir)
	if err != nil {
		return fmt.Errorf("creating conversation store: %w", err)
	}
	rt.store.SetSink(fs)
	return nil
}

// setupEvents connects the NATS turn-event bridge when configured.
func (rt *runtime) setupEvents() {
	if rt.cfg.Events.NATSURL == "" {
		return
	}
	pub, err := bridge.NewNATSPublisher(rt.cfg.Events.NATSURL, rt.cfg.Events.SubjectPrefix)
	if err != nil {
		rt.logger.Warn("event bridge unavailable", map[string]interface{}{
			"url":   rt.cfg.Events.NATSURL,
			"error": err.Error(),
		})
		return
	}
	rt.publisher = pub
	rt.addCloser(pub.Close)
}

// createOrchestrator selects the routing strategy once, at startup.
func (rt *runtime) createOrchestrator() {
	if rt.cfg.Router.DisableSupervisor {
		def, _ := rt.roster.Get(rt.roster.Fallback)
		filter := rt.buildFilter(rt.roster)
		rt.orch = router.NewDirect(rt.buildRunner(def, filter), rt.store)
		rt.logger.Info("supervisor disabled, routing everything to the fallback worker", map[string]interface{}{
			"worker": rt.roster.Fallback,
		})
		return
	}

	rt.sup = router.NewSupervisor(rt.roster, rt.buildRunners(rt.roster), rt.store, rt.cfg.Router.MaxHops)
	rt.sup.OnDispatch = func(threadID, worker string) {
		rt.publisher.WorkerDispatched(bridge.DispatchEvent{ThreadID: threadID, Worker: worker})
	}
	rt.sup.OnTurnEnd = func(threadID, response string, hops int) {
		rt.publisher.TurnCompleted(bridge.TurnEvent{ThreadID: threadID, Response: response, Hops: hops})
	}
	rt.orch = rt.sup
}

// buildFilter derives the permission filter from the roster's allow-lists
// and the configured block-list.
func (rt *runtime) buildFilter(t *team.Team) *toolbox.Filter {
	allow := make(map[string][]string)
	for _, w := range t.Workers {
		if len(w.Tools) > 0 {
			allow[w.Name] = w.Tools
		}
	}
	return toolbox.NewFilter(allow, rt.cfg.BlockedTools())
}

func (rt *runtime) buildRunner(def team.Worker, filter *toolbox.Filter) *worker.Agent {
	provider := rt.provider
	if def.Profile != "" {
		if p, ok := rt.profiles[def.Profile]; ok {
			provider = p
		}
	}
	return worker.New(def, provider, rt.registry, filter)
}

func (rt *runtime) buildRunners(t *team.Team) map[string]router.Runner {
	filter := rt.buildFilter(t)
	runners := make(map[string]router.Runner, len(t.Workers))
	for _, w := range t.Workers {
		runners[w.Name] = rt.buildRunner(w, filter)
	}
	return runners
}

// watchTeam hot-reloads the roster while serving. Only meaningful with the
// supervisor orchestrator and an on-disk team file.
func (rt *runtime) watchTeam(ctx context.Context) {
	if rt.teamFile == "" || !rt.cfg.Team.HotReload || rt.sup == nil {
		return
	}
	go func() {
		err := team.Watch(ctx, rt.teamFile, func(t *team.Team) {
			rt.sup.ReplaceTeam(t, rt.buildRunners(t))
		})
		if err != nil && ctx.Err() == nil {
			rt.logger.Warn("team watcher stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (rt *runtime) addCloser(fn func()) {
	rt.closers = append(rt.closers, fn)
}

// close releases runtime resources in reverse order.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// fatal prints an error and exits.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
