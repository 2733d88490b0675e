// Package observability provides Prometheus metrics, health endpoints and
// OpenTelemetry tracing for the discussion engine.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revboard_tool_actions_total",
			Help: "Total number of dispatched tool actions",
		},
		[]string{"action", "status"},
	)

	toolActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revboard_tool_action_duration_seconds",
			Help:    "Tool action duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revboard_decisions_total",
			Help: "Total number of recorded finding decisions",
		},
		[]string{"decision"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revboard_active_sessions",
			Help: "Number of sessions currently resident in the store",
		},
	)

	sessionsEvictedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revboard_sessions_evicted_total",
			Help: "Total number of sessions evicted from the store",
		},
		[]string{"reason"},
	)

	metricsOnce sync.Once
)

// InitMetrics registers all metrics with the default registry. Safe to call
// more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			toolActionsTotal,
			toolActionDuration,
			decisionsTotal,
			activeSessions,
			sessionsEvictedTotal,
		)
	})
}

// RecordToolAction records one dispatched action and its duration.
func RecordToolAction(action, status string, duration time.Duration) {
	toolActionsTotal.WithLabelValues(action, status).Inc()
	toolActionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordDecision counts one accept/defer/reject disposition.
func RecordDecision(decision string) {
	decisionsTotal.WithLabelValues(decision).Inc()
}

// SetActiveSessions updates the resident-session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordEviction counts a store eviction by reason ("expired" or "capacity").
func RecordEviction(reason string) {
	sessionsEvictedTotal.WithLabelValues(reason).Inc()
}

// MetricsHandler returns the Prometheus exposition handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
