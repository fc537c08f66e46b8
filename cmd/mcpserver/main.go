/*
main.go - MCP tool server entry point

PURPOSE:
  Starts the MCP server that exposes the vacation engine to LLM agents.
  Shares the store and configuration with the API server so both see the
  same data.

COMMAND-LINE FLAGS:
  -transport   "http" (default, serves MCP_ADDR) or "stdio" for local
               agent integrations

ENVIRONMENT:
  Same as cmd/server: DATABASE_URL / SQLITE_PATH select the store,
  MCP_ADDR sets the HTTP listen address, OIDC_* enables bearer-token
  verification on HTTP requests.

SEE ALSO:
  - mcp/server.go: Server construction and transports
  - mcp/tools.go: Tool definitions
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/config"
	"github.com/warp/vacation-tracker/mcp"
	"github.com/warp/vacation-tracker/store/postgres"
	"github.com/warp/vacation-tracker/store/sqlite"
	"github.com/warp/vacation-tracker/vacation"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	transportFlag := flag.String("transport", string(mcp.TransportHTTP), `transport: "http" or "stdio"`)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	store, closer, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closer.Close()

	svc := vacation.NewService(store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureHolidayCache(ctx); err != nil {
		logger.Warn("holiday cache warmup failed", "error", err)
	}

	var verifier auth.TokenVerifier
	if cfg.OAuth.Enabled() {
		v, err := auth.NewVerifier(ctx, cfg.OAuth)
		if err != nil {
			return fmt.Errorf("initialize token verifier: %w", err)
		}
		verifier = v
		logger.Info("oidc token verification enabled", "issuer", cfg.OAuth.Issuer)
	} else {
		logger.Warn("oidc not configured, tools run as a fixed dev identity")
	}

	srv := mcp.New(svc, verifier, logger)

	switch mcp.Transport(*transportFlag) {
	case mcp.TransportStdio:
		return srv.ServeStdio(ctx)
	case mcp.TransportHTTP:
		return srv.ServeHTTP(ctx, cfg.MCPAddr)
	default:
		return fmt.Errorf("unknown transport %q", *transportFlag)
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (vacation.Store, io.Closer, error) {
	if cfg.DatabaseURL != "" {
		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgresql store")
		return st, st, nil
	}

	st, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite store", "path", cfg.SQLitePath)
	return st, st, nil
}
