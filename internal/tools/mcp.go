package tools

import (
	"context"
	"encoding/json"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// FromMCPTool adapts a connected mcp-go client's tool into this package's
// Tool contract, so an externally hosted MCP server can supply tools to
// the registry without the core depending on any specific tool
// implementation (spec §1 keeps tool implementations out of scope; the
// core only defines the contract, and §4.7 says that contract is
// intentionally pluggable). Grounded on
// kadirpekel-hector's pkg/tool/mcptoolset/mcptoolset.go (ListTools /
// CallTool / TextContent result shape), since the pack's own teacher
// carries mark3labs/mcp-go as a dependency without a retrieved usage site.
type mcpToolAdapter struct {
	client *mcpclient.Client
	tool   mcp.Tool
}

// FromMCPTool lists the tools exposed by an already-initialized mcp-go
// client and returns one adapter per tool, ready for Registry.Register.
func FromMCPTool(ctx context.Context, client *mcpclient.Client) ([]Tool, error) {
	resp, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	out := make([]Tool, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		out = append(out, &mcpToolAdapter{client: client, tool: t})
	}
	return out, nil
}

func (a *mcpToolAdapter) Name() string        { return a.tool.Name }
func (a *mcpToolAdapter) Description() string { return a.tool.Description }

func (a *mcpToolAdapter) Parameters() map[string]interface{} {
	data, err := json.Marshal(a.tool.InputSchema)
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	return schema
}

func (a *mcpToolAdapter) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = a.tool.Name
	req.Params.Arguments = args

	resp, err := a.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp: call %s: %w", a.tool.Name, err)
	}

	var text string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	if resp.IsError {
		if text == "" {
			text = "unknown MCP tool error"
		}
		return "", fmt.Errorf("mcp: %s", text)
	}
	return text, nil
}
