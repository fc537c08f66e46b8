/*
metrics.go - Prometheus metrics for the HTTP API

PURPOSE:
  Collects request-level metrics and a few domain counters, exposed on
  /metrics for Prometheus scraping. Registration goes through an explicit
  prometheus.Registerer so tests can use isolated registries.

METRICS:
  vacation_http_requests_total{method,route,status}
  vacation_http_request_duration_seconds
  vacation_requests_created_total{type}
  vacation_requests_deleted_total
  vacation_chat_turns_total

SEE ALSO:
  - server.go: Wraps the router with the HTTP middleware
  - handlers.go: Records the domain counters
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects HTTP and domain metrics.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	requestsCreated *prometheus.CounterVec
	requestsDeleted prometheus.Counter
	chatTurns       prometheus.Counter
}

// NewMetrics creates a Metrics and registers everything on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vacation_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vacation_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		requestsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vacation_requests_created_total",
			Help: "Vacation requests created, by type.",
		}, []string{"type"}),
		requestsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vacation_requests_deleted_total",
			Help: "Vacation requests deleted.",
		}),
		chatTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vacation_chat_turns_total",
			Help: "Assistant conversation turns served.",
		}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.requestsCreated,
		m.requestsDeleted,
		m.chatTurns,
	)

	return m
}

// RecordRequestCreated counts a created vacation request.
func (m *Metrics) RecordRequestCreated(reqType string) {
	m.requestsCreated.WithLabelValues(reqType).Inc()
}

// RecordRequestDeleted counts a deleted vacation request.
func (m *Metrics) RecordRequestDeleted() {
	m.requestsDeleted.Inc()
}

// RecordChatTurn counts an assistant turn.
func (m *Metrics) RecordChatTurn() {
	m.chatTurns.Inc()
}

// Middleware instruments every request with the counter and latency
// histogram. The chi route pattern keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.httpDuration.Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler returns the Prometheus scrape handler for a gatherer.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
