/*
Package config loads application configuration from the environment.

Configuration is read once at startup and treated as immutable. The cmd
binaries load a .env file first (godotenv) so local development needs no
exported variables.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the settings for both the API server and the MCP server.
type Config struct {
	// Server
	Port              int
	FrontendURL       string
	CORSAllowedOrigin string

	// Storage. DatabaseURL selects PostgreSQL; when empty the server
	// falls back to a local SQLite file at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// MCP server listen address (streamable HTTP transport).
	MCPAddr string

	OAuth OAuthConfig
	Chat  ChatConfig
}

// OAuthConfig configures the OIDC integration. When incomplete, the
// servers run without authentication and log a warning; requests are
// then attributed to a development identity.
type OAuthConfig struct {
	Issuer        string
	ClientID      string
	Audience      string
	JWKSURL       string
	AuthEndpoint  string
	TokenEndpoint string
	RedirectURL   string
	CookieName    string
}

// Enabled reports whether the OIDC settings are complete enough to
// verify tokens.
func (o OAuthConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.Audience != "" && o.JWKSURL != ""
}

// ChatConfig configures the LLM assistant.
type ChatConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MCPURL     string
	MaxHistory int
	RatePerMin int
	RateBurst  int
}

// Enabled reports whether the chat assistant can run.
func (c ChatConfig) Enabled() bool {
	return c.APIKey != "" && c.MCPURL != ""
}

// Load reads the configuration from environment variables, applying
// development defaults for everything optional.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envInt("PORT", 8080),
		FrontendURL:       envDefault("FRONTEND_URL", "http://localhost:3001/dashboard"),
		CORSAllowedOrigin: envDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3001"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        envDefault("SQLITE_PATH", "vacation.db"),
		MCPAddr:           envDefault("MCP_ADDR", ":8090"),
		OAuth: OAuthConfig{
			Issuer:        os.Getenv("OAUTH_ISSUER"),
			ClientID:      os.Getenv("CLIENT_ID"),
			Audience:      os.Getenv("OAUTH_AUDIENCE"),
			JWKSURL:       os.Getenv("JWKS_URL"),
			AuthEndpoint:  os.Getenv("AUTH_ENDPOINT"),
			TokenEndpoint: os.Getenv("TOKEN_ENDPOINT"),
			RedirectURL:   os.Getenv("OAUTH_REDIRECT_URL"),
			CookieName:    envDefault("COOKIE_NAME", "pkce_cookie"),
		},
		Chat: ChatConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    envDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:      envDefault("OPENAI_MODEL", "gpt-4o-mini"),
			MCPURL:     os.Getenv("MCP_SERVER_URL"),
			MaxHistory: envInt("MAX_CONVERSATION_MESSAGES", 20),
			RatePerMin: envInt("CHAT_RATE_PER_MIN", 20),
			RateBurst:  envInt("CHAT_RATE_BURST", 5),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
