package auth

// In this file: JWKS retrieval and access-token verification.

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v4"

	"github.com/warp/vacation-tracker/config"
	"github.com/warp/vacation-tracker/vacation"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature,
	// issuer, audience, or expiry validation.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUnknownKey is returned when the token's key ID is not in the
	// provider's JWKS.
	ErrUnknownKey = errors.New("token signed with unknown key")
)

// Verifier validates bearer access tokens against the provider's JWKS
// and extracts the identity claims.
type Verifier struct {
	issuer   string
	audience string
	jwksURL  string

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey // by kid
}

// NewVerifier fetches the provider's signing keys and returns a
// ready-to-use Verifier.
func NewVerifier(ctx context.Context, cfg config.OAuthConfig) (*Verifier, error) {
	v := &Verifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		jwksURL:  cfg.JWKSURL,
		keys:     make(map[string]*rsa.PublicKey),
	}
	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// jwks is the JSON document served at the provider's jwks_uri.
type jwks struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// refreshKeys fetches the JWKS and replaces the key cache. Called at
// construction and again when a token arrives with an unknown kid
// (provider key rotation).
func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwks request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read jwks response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var doc jwks
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to parse jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			return fmt.Errorf("failed to parse jwks key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks at %s contains no RSA keys", v.jwksURL)
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	return nil
}

func parseRSAKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func (v *Verifier) keyByID(kid string) *rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys[kid]
}

// VerifyToken validates the access token and maps its claims to an
// Identity. An unknown kid triggers one JWKS refresh before failing.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*vacation.Identity, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if key := v.keyByID(kid); key != nil {
			return key, nil
		}
		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}
		if key := v.keyByID(kid); key != nil {
			return key, nil
		}
		return nil, ErrUnknownKey
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, keyfunc,
		jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	// Audience is checked here rather than via the parser: access
	// tokens may carry the audience as a string or a list.
	if !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	ident := &vacation.Identity{Subject: sub}
	ident.Email, _ = claims["email"].(string)
	ident.FirstName, _ = claims["given_name"].(string)
	ident.LastName, _ = claims["family_name"].(string)
	ident.Username, _ = claims["preferred_username"].(string)
	return ident, nil
}
