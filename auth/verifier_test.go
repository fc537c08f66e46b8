package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/config"
)

// =============================================================================
// TEST HELPERS - An in-process OIDC provider: RSA key + JWKS endpoint
// =============================================================================

const (
	testIssuer   = "https://idp.example.com/"
	testAudience = "vacation-api"
	testKid      = "test-key-1"
)

type fakeProvider struct {
	key  *rsa.PrivateKey
	jwks *httptest.Server
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKid,
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)

	return &fakeProvider{key: key, jwks: srv}
}

func (p *fakeProvider) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(p.key)
	require.NoError(t, err)
	return signed
}

func (p *fakeProvider) verifier(t *testing.T) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(context.Background(), config.OAuthConfig{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  p.jwks.URL,
	})
	require.NoError(t, err)
	return v
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                testAudience,
		"sub":                "auth0|alice",
		"email":              "alice@example.com",
		"given_name":         "Alice",
		"family_name":        "Nguyen",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"iat":                time.Now().Unix(),
	}
}

// =============================================================================
// TOKEN VERIFICATION TESTS
// =============================================================================

func TestVerifyToken_ValidToken(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	ident, err := v.VerifyToken(context.Background(), p.sign(t, validClaims()))
	require.NoError(t, err)

	assert.Equal(t, "auth0|alice", ident.Subject)
	assert.Equal(t, "alice@example.com", ident.Email)
	assert.Equal(t, "Alice", ident.FirstName)
	assert.Equal(t, "Nguyen", ident.LastName)
	assert.Equal(t, "alice", ident.Username)
}

func TestVerifyToken_AudienceAsList(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	claims := validClaims()
	claims["aud"] = []string{"other-api", testAudience}

	_, err := v.VerifyToken(context.Background(), p.sign(t, claims))
	assert.NoError(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	_, err := v.VerifyToken(context.Background(), p.sign(t, claims))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyToken_WrongIssuer(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	claims := validClaims()
	claims["iss"] = "https://evil.example.com/"

	_, err := v.VerifyToken(context.Background(), p.sign(t, claims))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyToken_WrongAudience(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	claims := validClaims()
	claims["aud"] = "someone-else"

	_, err := v.VerifyToken(context.Background(), p.sign(t, claims))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	// Signed by a key the JWKS has never published.
	p := newFakeProvider(t)
	v := p.verifier(t)

	rogue := newFakeProvider(t)
	_, err := v.VerifyToken(context.Background(), rogue.sign(t, validClaims()))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	p := newFakeProvider(t)
	v := p.verifier(t)

	_, err := v.VerifyToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
