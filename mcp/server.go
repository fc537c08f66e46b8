/*
server.go - MCP server construction and transport management

PURPOSE:
  Exposes the vacation engine to LLM agents over the Model Context
  Protocol. The same tool set is served over stdio (local agent
  integrations) or Streamable HTTP (the chat assistant, remote agents).

AUTH:
  Over HTTP, each request's Authorization header is verified and the
  resulting identity is placed on the request context before tool handlers
  run. Handlers that act on behalf of a user refuse to run without an
  identity. Over stdio, or when no verifier is configured, a fixed local
  identity is installed instead.

SEE ALSO:
  - tools.go: Tool definitions and handlers
  - cmd/mcpserver/main.go: Binary entry point
*/
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/vacation"
)

const (
	serverName    = "vacation-tracker-mcp"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout (local agent integrations).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP (the chat assistant, remote agents).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server around the vacation service.
type Server struct {
	mcp      *mcpsrv.MCPServer
	svc      *vacation.Service
	verifier auth.TokenVerifier // nil runs every tool as the local dev identity
	logger   *slog.Logger
}

// New creates a new MCP server backed by the given service. The server is
// populated with all tools but does not start listening until one of the
// Serve* methods is called.
func New(svc *vacation.Service, verifier auth.TokenVerifier, lg *slog.Logger) *Server {
	if lg == nil {
		lg = slog.Default()
	}
	s := &Server{
		svc:      svc,
		verifier: verifier,
		logger:   lg,
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions),
	)

	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	return s
}

const instructions = `You are connected to a corporate vacation tracker.

Available tools let you, on behalf of the authenticated employee:
- Look up corporate holidays for a year
- Read and update the employee profile (hire date)
- Read the vacation balance for a year
- List, create, and delete vacation entries
- Count business days in a date range

All dates use YYYY-MM-DD. Vacation entries cover whole days only; weekends
and corporate holidays are never charged against the balance.`

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
		mcpsrv.WithHTTPContextFunc(s.identityFromRequest),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// identityFromRequest verifies the bearer token on an HTTP request and, on
// success, installs the identity on the context seen by tool handlers. An
// unverifiable token leaves the context without an identity; the tool
// handlers then answer with a tool error rather than a transport failure.
func (s *Server) identityFromRequest(ctx context.Context, r *http.Request) context.Context {
	if s.verifier == nil {
		return auth.WithIdentity(ctx, devIdentity())
	}

	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return ctx
	}

	ident, err := s.verifier.VerifyToken(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: token verification failed", "error", err)
		return ctx
	}
	return auth.WithIdentity(ctx, ident)
}

// identity returns the caller's identity from the tool-handler context. Over
// stdio there is no per-request token, so the local dev identity applies.
func (s *Server) identity(ctx context.Context) (*vacation.Identity, error) {
	if ident := auth.IdentityFromContext(ctx); ident != nil {
		return ident, nil
	}
	if s.verifier == nil {
		return devIdentity(), nil
	}
	return nil, errors.New("not authenticated: a valid bearer token is required")
}

func devIdentity() *vacation.Identity {
	return &vacation.Identity{
		Subject:   "dev-user",
		Email:     "dev@localhost",
		FirstName: "Dev",
		LastName:  "User",
		Username:  "dev",
	}
}

// resultText wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument from a tool call request. The MCP
// protocol serialises numbers as float64, so we convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}
