// Package metrics provides Prometheus instrumentation for the wager engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WagersPlacedTotal counts committed wagers, partitioned by kind.
	WagersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagestake_wagers_placed_total",
		Help: "Total number of wagers committed",
	}, []string{"kind"})

	// ParlaysPlacedTotal counts committed parlay groups.
	ParlaysPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagestake_parlays_placed_total",
		Help: "Total number of parlay groups committed",
	})

	// WagersSettledTotal counts settled wagers by outcome.
	WagersSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagestake_wagers_settled_total",
		Help: "Total number of wagers settled",
	}, []string{"outcome"})

	// ParlaysWonTotal counts parlay groups settled as won.
	ParlaysWonTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagestake_parlays_won_total",
		Help: "Total number of parlays won",
	})

	// PagesReadTotal counts pages recorded through progress updates.
	PagesReadTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagestake_pages_read_total",
		Help: "Cumulative pages recorded across all wagers",
	})

	// SessionsCommittedTotal counts committed reading sessions.
	SessionsCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagestake_sessions_committed_total",
		Help: "Total number of reading sessions committed",
	})

	// PlacementRejections counts placements rejected before debit,
	// partitioned by reason (insufficient_funds, stake_limit, ...).
	PlacementRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagestake_placement_rejections_total",
		Help: "Wager placements rejected before debit",
	}, []string{"reason"})

	// ActiveWagers tracks the number of currently active wagers.
	ActiveWagers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagestake_active_wagers",
		Help: "Number of currently active wagers",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagestake_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagestake_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagestake_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the API surface is small and
		// bounded so cardinality stays manageable.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
