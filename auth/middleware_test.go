package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/vacation"
)

// =============================================================================
// BEARER TOKEN PARSING
// =============================================================================

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"Bearer   abc123", "abc123", true},
		{"Bearer ", "", false},
		{"abc123", "", false},
		{"bearer abc123", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		token, ok := auth.BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, "header %q", tc.header)
		assert.Equal(t, tc.token, token, "header %q", tc.header)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type stubVerifier struct {
	ident *vacation.Identity
	err   error
}

func (s *stubVerifier) VerifyToken(_ context.Context, _ string) (*vacation.Identity, error) {
	return s.ident, s.err
}

func TestMiddleware_InstallsIdentity(t *testing.T) {
	verifier := &stubVerifier{ident: &vacation.Identity{Subject: "auth0|alice"}}

	var seen *vacation.Identity
	handler := auth.Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/employees/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, "auth0|alice", seen.Subject)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	handler := auth.Middleware(&stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/employees/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing or invalid authorization header")
}

func TestMiddleware_RejectedToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("boom")}
	handler := auth.Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/employees/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestIdentityFromContext_Empty(t *testing.T) {
	assert.Nil(t, auth.IdentityFromContext(context.Background()))
}
