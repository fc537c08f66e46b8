package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-tracker/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "vacation.db", cfg.SQLitePath)
	assert.Equal(t, ":8090", cfg.MCPAddr)
	assert.Equal(t, "pkce_cookie", cfg.OAuth.CookieName)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	assert.Equal(t, 20, cfg.Chat.MaxHistory)

	assert.False(t, cfg.OAuth.Enabled())
	assert.False(t, cfg.Chat.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/vacation")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MCP_SERVER_URL", "http://localhost:8090/mcp")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://localhost/vacation", cfg.DatabaseURL)
	assert.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	assert.True(t, cfg.Chat.Enabled())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestOAuthEnabled(t *testing.T) {
	t.Setenv("OAUTH_ISSUER", "https://idp.example.com/")
	t.Setenv("CLIENT_ID", "client-1")
	t.Setenv("OAUTH_AUDIENCE", "vacation-api")
	t.Setenv("JWKS_URL", "https://idp.example.com/jwks")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.OAuth.Enabled())
}
