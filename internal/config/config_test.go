package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Router.MaxHops != 6 {
		t.Errorf("expected default max_hops 6, got %d", cfg.Router.MaxHops)
	}
	if cfg.Router.DisableSupervisor {
		t.Error("supervisor should be enabled by default")
	}
	if cfg.API.Addr != ":8462" {
		t.Errorf("unexpected default api addr: %s", cfg.API.Addr)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Router.MaxHops != 6 {
		t.Errorf("expected defaults, got max_hops %d", cfg.Router.MaxHops)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimpilot.toml")
	content := `
[llm]
provider = "anthropic"
model = "claude-test"

[router]
max_hops = 3

[tools]
blocked = ["mcp_files_delete"]
enable_send = true

[mcp.servers.mail]
command = "mail-server"
args = ["--readonly"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Model != "claude-test" {
		t.Errorf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.Router.MaxHops != 3 {
		t.Errorf("expected max_hops 3, got %d", cfg.Router.MaxHops)
	}
	if srv, ok := cfg.MCP.Servers["mail"]; !ok || srv.Command != "mail-server" {
		t.Errorf("mcp server not loaded: %+v", cfg.MCP.Servers)
	}
	if !cfg.Tools.EnableSend {
		t.Error("enable_send not loaded")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLAIMPILOT_MAX_HOPS", "2")
	t.Setenv("CLAIMPILOT_DISABLE_SUPERVISOR", "true")
	t.Setenv("CLAIMPILOT_BLOCKED_TOOLS", "tool_a, tool_b")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Router.MaxHops != 2 {
		t.Errorf("env max_hops not applied: %d", cfg.Router.MaxHops)
	}
	if !cfg.Router.DisableSupervisor {
		t.Error("env disable_supervisor not applied")
	}
	if len(cfg.Tools.Blocked) != 2 || cfg.Tools.Blocked[0] != "tool_a" {
		t.Errorf("env blocked tools not applied: %v", cfg.Tools.Blocked)
	}
}

func TestBlockedTools_SendDefaults(t *testing.T) {
	cfg := New()
	blocked := cfg.BlockedTools()

	found := false
	for _, name := range blocked {
		if name == "mcp_mail_send_message" {
			found = true
		}
	}
	if !found {
		t.Error("send tools should be blocked by default")
	}

	cfg.Tools.EnableSend = true
	for _, name := range cfg.BlockedTools() {
		if name == "mcp_mail_send_message" {
			t.Error("enable_send should unblock send tools")
		}
	}
}
