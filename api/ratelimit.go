/*
ratelimit.go - Per-user rate limiting for the assistant endpoint

PURPOSE:
  The /chat endpoint fans out to an LLM and the tool layer, so it is far
  more expensive than the CRUD routes. A token-bucket limiter per OIDC
  subject keeps one user from monopolizing it.

MECHANISM:
  golang.org/x/time/rate token buckets, one per subject, created lazily.
  Idle buckets are swept by a background goroutine so the map cannot grow
  without bound.
*/
package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/vacation-tracker/auth"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces a per-subject request rate.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*userLimiter
	stopCh   chan struct{}
}

// NewRateLimiter creates a limiter allowing perMinute requests per subject
// with the given burst, and starts the idle-entry sweeper.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop terminates the sweeper goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware rejects over-limit requests with 429. It must run after the
// auth middleware so the subject is known.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := auth.IdentityFromContext(r.Context())
		if ident == nil {
			writeError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		if !rl.allow(ident.Subject) {
			slog.WarnContext(r.Context(), "rate limit exceeded", "subject", ident.Subject, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(subject string) bool {
	rl.mu.Lock()
	ul, ok := rl.limiters[subject]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[subject] = ul
	}
	ul.lastAccess = time.Now()
	rl.mu.Unlock()

	return ul.limiter.Allow()
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleTTL)
			rl.mu.Lock()
			for subject, ul := range rl.limiters {
				if ul.lastAccess.Before(cutoff) {
					delete(rl.limiters, subject)
				}
			}
			rl.mu.Unlock()
		}
	}
}
