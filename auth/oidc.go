/*
Package auth isolates all OAuth/OIDC details.

PURPOSE:
  Three concerns live here, and nothing else in the codebase touches
  tokens or provider endpoints:
  - Provider: the authorization-code flow with PKCE (login URL, code
    exchange, refresh, logout URL)
  - Verifier: access-token validation against the provider's JWKS
  - Middleware: extracting a verified Identity from the Authorization
    header and installing it in the request context

SEE ALSO:
  - verifier.go: JWKS fetch and token validation
  - middleware.go: chi middleware and context helpers
*/
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/warp/vacation-tracker/config"
)

// Provider implements the OIDC authorization-code flow with PKCE
// against the configured endpoints.
type Provider struct {
	cfg config.OAuthConfig
}

func NewProvider(cfg config.OAuthConfig) *Provider {
	return &Provider{cfg: cfg}
}

// PKCEDetails holds the verifier/challenge pair for one login attempt.
// The verifier is kept client-side in an HttpOnly cookie until the
// callback exchanges the code.
type PKCEDetails struct {
	CodeVerifier  string `json:"codeVerifier"`
	CodeChallenge string `json:"codeChallenge"`
	Method        string `json:"method"`
}

// NewPKCE generates a fresh verifier and its S256 challenge.
func NewPKCE() (*PKCEDetails, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate pkce verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(verifier))
	return &PKCEDetails{
		CodeVerifier:  verifier,
		CodeChallenge: base64.RawURLEncoding.EncodeToString(sum[:]),
		Method:        "S256",
	}, nil
}

// AuthURL builds the provider authorization URL for a login redirect.
func (p *Provider) AuthURL(pkce *PKCEDetails) string {
	params := url.Values{
		"client_id":             {p.cfg.ClientID},
		"redirect_uri":          {p.cfg.RedirectURL},
		"response_type":         {"code"},
		"scope":                 {"openid email profile"},
		"code_challenge":        {pkce.CodeChallenge},
		"code_challenge_method": {pkce.Method},
	}
	return p.cfg.AuthEndpoint + "?" + params.Encode()
}

// Tokens is the provider's token-endpoint response.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExchangeCode trades an authorization code plus the PKCE verifier for
// tokens.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"redirect_uri":  {p.cfg.RedirectURL},
		"code_verifier": {codeVerifier},
	}
	return p.tokenRequest(ctx, data)
}

// Refresh trades a refresh token for a new token set.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {p.cfg.ClientID},
	}
	return p.tokenRequest(ctx, data)
}

func (p *Provider) tokenRequest(ctx context.Context, data url.Values) (*Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return &tokens, nil
}

// LogoutURL builds the provider's session-end URL. The logout endpoint
// is derived from the token endpoint, which the common providers expose
// side by side.
func (p *Provider) LogoutURL(redirectURI string) string {
	logout := strings.Replace(p.cfg.TokenEndpoint, "/token", "/logout", 1)
	return logout + "?redirect_uri=" + url.QueryEscape(redirectURI)
}
