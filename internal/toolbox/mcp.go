package toolbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinayprograms/agentkit/mcp"
)

// MCPProvider exposes every tool of a connected MCP manager. Tool names are
// prefixed "mcp_<server>_<tool>" so one flat namespace covers all servers.
type MCPProvider struct {
	manager *mcp.Manager
}

// NewMCPProvider wraps an already-connected MCP manager.
func NewMCPProvider(manager *mcp.Manager) *MCPProvider {
	return &MCPProvider{manager: manager}
}

// Name implements Provider.
func (p *MCPProvider) Name() string { return "mcp" }

// Tools implements Provider.
func (p *MCPProvider) Tools(ctx context.Context) ([]Tool, error) {
	if p.manager == nil {
		return nil, fmt.Errorf("no MCP manager configured")
	}

	var out []Tool
	for _, t := range p.manager.AllTools() {
		out = append(out, &mcpTool{
			manager:     p.manager,
			server:      t.Server,
			tool:        t.Tool.Name,
			description: fmt.Sprintf("[MCP:%s] %s", t.Server, t.Tool.Description),
			schema:      t.Tool.InputSchema,
		})
	}
	return out, nil
}

type mcpTool struct {
	manager     *mcp.Manager
	server      string
	tool        string
	description string
	schema      map[string]interface{}
}

func (t *mcpTool) Name() string {
	return fmt.Sprintf("mcp_%s_%s", t.server, t.tool)
}

func (t *mcpTool) Description() string { return t.description }

func (t *mcpTool) InputSchema() map[string]interface{} { return t.schema }

func (t *mcpTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := t.manager.CallTool(ctx, t.server, t.tool, args)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			output.WriteString(c.Text)
		}
	}
	return output.String(), nil
}
