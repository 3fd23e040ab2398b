// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "transient"
	OutcomeStale    = "stale"
	OutcomeMismatch = "price_mismatch"
	OutcomeNone     = "no_gamepasses"
	OutcomeInvalid  = "invalid"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	UserLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx5_user_lookups_total",
			Help: "Debounced username lookups by outcome",
		},
		[]string{"outcome"},
	)

	PlaceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx5_place_fetches_total",
			Help: "Place list fetches by outcome",
		},
		[]string{"outcome"},
	)

	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx5_gamepass_verifications_total",
			Help: "Gamepass verifications by outcome",
		},
		[]string{"outcome"},
	)

	Checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx5_checkouts_total",
			Help: "Checkout handoffs written by outcome",
		},
		[]string{"outcome"},
	)

	HandoffClaims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx5_handoff_claims_total",
			Help: "Checkout handoff claims by outcome",
		},
		[]string{"outcome"},
	)

	Invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rbx5_verification_invalidations_total",
		Help: "Verifications invalidated by a quantity change",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rbx5_active_sessions",
		Help: "Open checkout sessions",
	})
)
