// Package mcpclient adapts an already-connected MCP server's tools into
// the Tool Registry's tools.Tool contract. Per spec.md's Non-goals, MCP
// server discovery, transport selection, and the initialize handshake are
// an external collaborator's concern: this package only needs a live
// connection handed to it, and exposes what it offers through the same
// interface as a built-in tool.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/mark3labs/mcp-go/mcp"

	"grok-cli/internal/logging"
	"grok-cli/internal/tools"
)

// Connection is the subset of github.com/mark3labs/mcp-go/client.MCPClient
// this package calls. A real SDK client satisfies it structurally; tests
// substitute a fake without needing a live server.
type Connection interface {
	ListTools(ctx context.Context, req sdkmcp.ListToolsRequest) (*sdkmcp.ListToolsResult, error)
	CallTool(ctx context.Context, req sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error)
}

// Adapter exposes one connected MCP server's tools as tools.Tool values.
type Adapter struct {
	ServerName string
	conn       Connection
}

// NewAdapter wraps an already-initialized connection. serverName is used
// to namespace-qualify errors and, where the caller wants it, tool names.
func NewAdapter(serverName string, conn Connection) *Adapter {
	return &Adapter{ServerName: serverName, conn: conn}
}

// Tools lists every tool the server currently offers, each wrapped as a
// tools.Tool the Registry can register and dispatch by name exactly like
// a built-in.
func (a *Adapter) Tools(ctx context.Context) ([]*tools.Tool, error) {
	result, err := a.conn.ListTools(ctx, sdkmcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools on %q: %w", a.ServerName, err)
	}

	out := make([]*tools.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		out = append(out, a.Tool(t.Name, t.Description, t.InputSchema))
	}
	return out, nil
}

// Tool builds a single tools.Tool that proxies Execute to a CallTool
// request against this server. inputSchema is the MCP tool's JSON-schema
// properties/required block, converted to tools.ToolSchema on a
// best-effort basis (unrecognized schema shapes degrade to no validation
// rather than failing registration).
func (a *Adapter) Tool(name, description string, inputSchema sdkmcp.ToolInputSchema) *tools.Tool {
	return &tools.Tool{
		Name:        name,
		Description: description,
		Category:    tools.CategoryMCP,
		Schema:      convertSchema(inputSchema),
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return a.callTool(ctx, name, args)
		},
	}
}

func (a *Adapter) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := sdkmcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	logging.ToolsDebug("mcpclient: calling %s.%s", a.ServerName, name)
	result, err := a.conn.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcpclient: call %q on %q: %w", name, a.ServerName, err)
	}

	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if result.IsError {
		return "", fmt.Errorf("mcpclient: tool %q on %q returned an error: %s", name, a.ServerName, text)
	}
	return text, nil
}

func convertSchema(input sdkmcp.ToolInputSchema) tools.ToolSchema {
	raw, err := json.Marshal(input)
	if err != nil {
		return tools.ToolSchema{}
	}
	var parsed struct {
		Required   []string                  `json:"required"`
		Properties map[string]map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return tools.ToolSchema{}
	}

	props := make(map[string]tools.Property, len(parsed.Properties))
	for name, p := range parsed.Properties {
		prop := tools.Property{}
		if t, ok := p["type"].(string); ok {
			prop.Type = t
		}
		if d, ok := p["description"].(string); ok {
			prop.Description = d
		}
		props[name] = prop
	}
	return tools.ToolSchema{Required: parsed.Required, Properties: props}
}
