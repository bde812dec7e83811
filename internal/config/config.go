// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the claimpilot configuration.
type Config struct {
	LLM       LLMConfig          `toml:"llm"`      // Default LLM settings
	Profiles  map[string]Profile `toml:"profiles"` // Named LLM profiles for workers
	Router    RouterConfig       `toml:"router"`
	Tools     ToolsConfig        `toml:"tools"`
	MCP       MCPConfig          `toml:"mcp"` // MCP tool servers
	Telemetry TelemetryConfig    `toml:"telemetry"`
	Events    EventsConfig       `toml:"events"`  // NATS turn-event publication
	Storage   StorageConfig      `toml:"storage"` // Conversation persistence
	API       APIConfig          `toml:"api"`
	Team      TeamConfig         `toml:"team"`
}

// LLMConfig contains LLM provider settings.
type LLMConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	APIKeyEnv    string `toml:"api_key_env"`
	MaxTokens    int    `toml:"max_tokens"`
	BaseURL      string `toml:"base_url"` // Custom API endpoint (OpenRouter, Ollama, ...)
	MaxRetries   int    `toml:"max_retries"`
	RetryBackoff string `toml:"retry_backoff"`
}

// Profile maps a worker capability profile to a specific LLM configuration.
type Profile struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
	BaseURL   string `toml:"base_url"`
}

// RouterConfig contains supervisor routing settings.
type RouterConfig struct {
	MaxHops           int  `toml:"max_hops"`           // Worker hops per turn before forcing the fallback worker
	DisableSupervisor bool `toml:"disable_supervisor"` // Route every turn directly to the general worker
}

// ToolsConfig contains tool exposure settings.
type ToolsConfig struct {
	Blocked    []string `toml:"blocked"`     // Tool names hidden from every worker
	EnableSend bool     `toml:"enable_send"` // Re-enable the default-blocked send/reply tools
}

// MCPConfig contains MCP tool server configuration.
type MCPConfig struct {
	Servers map[string]MCPServerConfig `toml:"servers"`
}

// MCPServerConfig configures an MCP server connection.
type MCPServerConfig struct {
	Command     string            `toml:"command"`
	Args        []string          `toml:"args,omitempty"`
	Env         map[string]string `toml:"env,omitempty"`
	DeniedTools []string          `toml:"denied_tools,omitempty"` // Tools to exclude entirely
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"` // OTLP endpoint (e.g., localhost:4317)
	Protocol string `toml:"protocol"` // grpc (default) or http
}

// EventsConfig contains turn-event publication settings.
type EventsConfig struct {
	NATSURL       string `toml:"nats_url"`       // Empty disables publication
	SubjectPrefix string `toml:"subject_prefix"` // Default "claimpilot.events"
}

// StorageConfig contains conversation persistence settings.
type StorageConfig struct {
	Path                 string `toml:"path"`                  // Base directory for persistent data
	PersistConversations bool   `toml:"persist_conversations"` // Mirror conversations to JSONL files
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Addr string `toml:"addr"` // Listen address, default ":8462"
}

// TeamConfig locates the worker team definition.
type TeamConfig struct {
	File      string `toml:"file"`       // Path to team.yaml; empty uses the built-in team
	HotReload bool   `toml:"hot_reload"` // Watch the file and reload on change
}

// DefaultSendTools are hidden unless tools.enable_send is set. They cover
// outbound actions (mail replies, invite dispatch) that must stay read-only
// by default.
var DefaultSendTools = []string{
	"mcp_mail_send_message",
	"mcp_mail_reply",
	"mcp_calendar_send_invite",
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Router: RouterConfig{
			MaxHops: 6,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
		Events: EventsConfig{
			SubjectPrefix: "claimpilot.events",
		},
		Storage: StorageConfig{
			Path: "~/.local/claimpilot",
		},
		API: APIConfig{
			Addr: ":8462",
		},
	}
}

// Load reads configuration from the given TOML file, falling back to
// defaults if the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// applyEnv applies CLAIMPILOT_* environment overrides on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLAIMPILOT_MAX_HOPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Router.MaxHops = n
		}
	}
	if v := os.Getenv("CLAIMPILOT_DISABLE_SUPERVISOR"); v != "" {
		c.Router.DisableSupervisor = isTruthy(v)
	}
	if v := os.Getenv("CLAIMPILOT_BLOCKED_TOOLS"); v != "" {
		c.Tools.Blocked = splitList(v)
	}
	if v := os.Getenv("CLAIMPILOT_ENABLE_SEND"); v != "" {
		c.Tools.EnableSend = isTruthy(v)
	}
	if v := os.Getenv("CLAIMPILOT_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("CLAIMPILOT_API_ADDR"); v != "" {
		c.API.Addr = v
	}
}

// normalize fixes up values that must always be usable.
func (c *Config) normalize() {
	if c.Router.MaxHops <= 0 {
		c.Router.MaxHops = 6
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "claimpilot.events"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8462"
	}
	if strings.HasPrefix(c.Storage.Path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			c.Storage.Path = filepath.Join(home, strings.TrimPrefix(c.Storage.Path, "~"))
		}
	}
}

// BlockedTools returns the effective block-list: the configured list plus
// the default send-type tools unless sending was explicitly enabled.
func (c *Config) BlockedTools() []string {
	blocked := make([]string, 0, len(c.Tools.Blocked)+len(DefaultSendTools))
	blocked = append(blocked, c.Tools.Blocked...)
	if !c.Tools.EnableSend {
		blocked = append(blocked, DefaultSendTools...)
	}
	return blocked
}

// GetAPIKey returns the API key from the configured environment variable.
// If api_key_env is not set, uses the default env var for the provider.
func (c *Config) GetAPIKey() string {
	return apiKeyFromEnv(c.LLM.APIKeyEnv, c.LLM.Provider)
}

// GetProfileAPIKey returns the API key for a named profile.
func (c *Config) GetProfileAPIKey(name string) string {
	p, ok := c.Profiles[name]
	if !ok {
		return c.GetAPIKey()
	}
	return apiKeyFromEnv(p.APIKeyEnv, p.Provider)
}

func apiKeyFromEnv(envVar, provider string) string {
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	default:
		return ""
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
