package auth

// In this file: HTTP middleware and request-context identity helpers.

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/warp/vacation-tracker/vacation"
)

type contextKey struct{}

var identityKey contextKey

// TokenVerifier is the subset of Verifier the middleware needs; the MCP
// server shares this interface.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*vacation.Identity, error)
}

// Middleware returns a chi middleware that requires a valid bearer
// token and installs the resulting Identity in the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Missing or invalid authorization header")
				return
			}
			ident, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, ident *vacation.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext returns the identity installed by Middleware, or
// nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *vacation.Identity {
	ident, _ := ctx.Value(identityKey).(*vacation.Identity)
	return ident
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
