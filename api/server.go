/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend
  6. Metrics:    Request counter and latency histogram

ROUTE GROUPS:
  Public:        /, /login, /auth/callback, /testrefresh, /logout,
                 /holidays, /vacations/calculate-days, /metrics
  Authenticated: /employees/me*, /vacations*, /chat
                 /chat additionally sits behind a per-user rate limit.

AUTH:
  The identity middleware is injected. In production it is
  auth.Middleware(verifier); with OAuth unconfigured the caller passes
  DevIdentity() so the rest of the stack still sees an identity.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/vacation"
)

// RouterConfig bundles the router's injected dependencies.
type RouterConfig struct {
	Identity    func(http.Handler) http.Handler // auth.Middleware or DevIdentity
	Metrics     *Metrics
	Gatherer    prometheus.Gatherer
	ChatLimiter *RateLimiter // nil disables rate limiting
	CORSOrigin  string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, rc RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{rc.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if rc.Metrics != nil {
		r.Use(rc.Metrics.Middleware)
	}

	// Public routes
	r.Get("/", h.Root)
	r.Get("/login", h.Login)
	r.Get("/auth/callback", h.AuthCallback)
	r.Get("/testrefresh", h.TestRefresh)
	r.Get("/logout", h.Logout)
	r.Get("/holidays", h.GetHolidays)
	r.Post("/vacations/calculate-days", h.CalculateDays)

	if rc.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", MetricsHandler(rc.Gatherer))
	}

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(rc.Identity)

		r.Get("/employees/me", h.GetProfile)
		r.Put("/employees/me", h.UpdateProfile)
		r.Get("/employees/me/balance", h.GetBalance)

		r.Get("/vacations", h.ListVacations)
		r.Post("/vacations", h.CreateVacation)
		r.Delete("/vacations/{id}", h.DeleteVacation)

		r.Group(func(r chi.Router) {
			if rc.ChatLimiter != nil {
				r.Use(rc.ChatLimiter.Middleware)
			}
			r.Post("/chat", h.Chat)
		})
	})

	return r
}

// DevIdentity installs a fixed local identity for every request. Only for
// running without an OIDC provider; never use it in production.
func DevIdentity() func(http.Handler) http.Handler {
	ident := &vacation.Identity{
		Subject:   "dev-user",
		Email:     "dev@localhost",
		FirstName: "Dev",
		LastName:  "User",
		Username:  "dev",
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
		})
	}
}
