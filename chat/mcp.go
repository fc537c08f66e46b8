/*
mcp.go - MCP client for the assistant's tool layer

PURPOSE:
  Connects to the vacation MCP server over Streamable HTTP, lists the
  available tools in OpenAI function format, and executes tool calls on
  the model's behalf.

AUTH:
  The caller's bearer token travels with every MCP request so the tool
  layer acts as the authenticated employee, never as the assistant
  service itself. A fresh session is opened per operation; the token is
  bound to the session's HTTP headers at construction time.
*/
package chat

import (
	"context"
	"fmt"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// MCPClient talks to the vacation MCP server.
type MCPClient struct {
	baseURL string
}

// NewMCPClient creates a client for the MCP server at baseURL.
func NewMCPClient(baseURL string) *MCPClient {
	return &MCPClient{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// session opens and initializes an MCP session carrying the access token.
// The caller must Close the returned client.
func (m *MCPClient) session(ctx context.Context, accessToken string) (*mcpclient.Client, error) {
	var opts []transport.StreamableHTTPCOption
	if accessToken != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + accessToken,
		}))
	}

	c, err := mcpclient.NewStreamableHttpClient(m.baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{
		Name:    "vacation-assistant",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	return c, nil
}

// ListTools returns the server's tools in OpenAI function format.
func (m *MCPClient) ListTools(ctx context.Context, accessToken string) ([]Tool, error) {
	c, err := m.session(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	res, err := c.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	tools := make([]Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return tools, nil
}

// CallTool executes one tool call and returns the textual result. Tool-level
// failures come back as the result text, not as an error, so the model can
// read and relay them.
func (m *MCPClient) CallTool(ctx context.Context, accessToken, name string, args map[string]any) (string, error) {
	c, err := m.session(ctx, accessToken)
	if err != nil {
		return "", err
	}
	defer c.Close()

	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(mcplib.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if res.IsError && text == "" {
		text = fmt.Sprintf("tool %s failed", name)
	}
	return text, nil
}
