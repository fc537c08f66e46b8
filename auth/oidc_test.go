package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/config"
)

func TestNewPKCE(t *testing.T) {
	pkce, err := auth.NewPKCE()
	require.NoError(t, err)

	assert.Equal(t, "S256", pkce.Method)
	assert.NotEmpty(t, pkce.CodeVerifier)

	sum := sha256.Sum256([]byte(pkce.CodeVerifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), pkce.CodeChallenge)

	// Each login attempt gets its own verifier.
	other, err := auth.NewPKCE()
	require.NoError(t, err)
	assert.NotEqual(t, pkce.CodeVerifier, other.CodeVerifier)
}

func TestAuthURL(t *testing.T) {
	p := auth.NewProvider(config.OAuthConfig{
		ClientID:     "client-1",
		AuthEndpoint: "https://idp.example.com/auth",
		RedirectURL:  "http://localhost:8080/auth/callback",
	})

	pkce, err := auth.NewPKCE()
	require.NoError(t, err)

	u, err := url.Parse(p.AuthURL(pkce))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, pkce.CodeChallenge, q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"id_token":      "idt-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	p := auth.NewProvider(config.OAuthConfig{
		ClientID:      "client-1",
		TokenEndpoint: srv.URL + "/token",
		RedirectURL:   "http://localhost:8080/auth/callback",
	})

	tokens, err := p.ExchangeCode(context.Background(), "the-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, "at-1", tokens.AccessToken)
	assert.Equal(t, "rt-1", tokens.RefreshToken)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "the-verifier", form.Get("code_verifier"))
}

func TestExchangeCode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := auth.NewProvider(config.OAuthConfig{TokenEndpoint: srv.URL})

	_, err := p.ExchangeCode(context.Background(), "bad-code", "v")
	assert.Error(t, err)
}

func TestLogoutURL(t *testing.T) {
	p := auth.NewProvider(config.OAuthConfig{
		TokenEndpoint: "https://idp.example.com/oauth/token",
	})

	got := p.LogoutURL("http://localhost:3001/")
	assert.Equal(t, "https://idp.example.com/oauth/logout?redirect_uri=http%3A%2F%2Flocalhost%3A3001%2F", got)
}
