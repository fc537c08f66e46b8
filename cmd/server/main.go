/*
main.go - HTTP API entry point

PURPOSE:
  Initializes and starts the vacation tracker API server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Open the store (PostgreSQL when DATABASE_URL is set, else SQLite)
  3. Warm the holiday cache for the current and next year
  4. Set up OIDC verification and the assistant (both optional)
  5. Start the HTTP server with graceful shutdown

ENVIRONMENT:
  PORT, DATABASE_URL, SQLITE_PATH, FRONTEND_URL, CORS_ALLOWED_ORIGIN,
  OIDC_* / COOKIE_NAME for auth, OPENAI_* / MCP_SERVER_URL for the
  assistant. See config/config.go for the full list and defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
  - cmd/mcpserver/main.go: The MCP tool server binary
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/vacation-tracker/api"
	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/chat"
	"github.com/warp/vacation-tracker/config"
	"github.com/warp/vacation-tracker/store/postgres"
	"github.com/warp/vacation-tracker/store/sqlite"
	"github.com/warp/vacation-tracker/vacation"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// .env is optional; real deployments set the environment directly.
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

	ctx := context.Background()
	if err := svc.EnsureHolidayCache(ctx); err != nil {
		// The cache refills lazily on holiday reads; startup can proceed.
		logger.Warn("holiday cache warmup failed", "error", err)
	}

	var (
		provider *auth.Provider
		identity func(http.Handler) http.Handler
	)
	if cfg.OAuth.Enabled() {
		verifier, err := auth.NewVerifier(ctx, cfg.OAuth)
		if err != nil {
			return fmt.Errorf("initialize token verifier: %w", err)
		}
		provider = auth.NewProvider(cfg.OAuth)
		identity = auth.Middleware(verifier)
		logger.Info("oidc authentication enabled", "issuer", cfg.OAuth.Issuer)
	} else {
		identity = api.DevIdentity()
		logger.Warn("oidc not configured, running with a fixed dev identity")
	}

	var chatSvc *chat.Service
	var chatLimiter *api.RateLimiter
	if cfg.Chat.Enabled() {
		chatSvc = chat.NewService(cfg.Chat, logger)
		chatLimiter = api.NewRateLimiter(cfg.Chat.RatePerMin, cfg.Chat.RateBurst)
		defer chatLimiter.Stop()
		logger.Info("assistant enabled", "model", cfg.Chat.Model, "mcp_url", cfg.Chat.MCPURL)
	}

	registry := prometheus.NewRegistry()
	metrics := api.NewMetrics(registry)

	handler := api.NewHandler(svc, provider, chatSvc, cfg, logger, metrics)
	router := api.NewRouter(handler, api.RouterConfig{
		Identity:    identity,
		Metrics:     metrics,
		Gatherer:    registry,
		ChatLimiter: chatLimiter,
		CORSOrigin:  cfg.CORSAllowedOrigin,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // assistant turns can be slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore selects the storage backend: PostgreSQL when DATABASE_URL is
// set, a local SQLite file otherwise.
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
