// Package metrics defines Prometheus metrics for nodelearn.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodelearn_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodelearn_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodelearn_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	ExpansionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodelearn_expansions_total",
			Help: "Total node expansions by outcome",
		},
		[]string{"outcome"},
	)

	SuggestionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nodelearn_suggestions_accepted_total",
			Help: "Total accepted suggestion candidates",
		},
	)

	ProviderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nodelearn_provider_failures_total",
			Help: "Total suggestion provider failures",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodelearn_active_sessions",
			Help: "Currently live exploration sessions",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodelearn_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		ExpansionsTotal, SuggestionsAccepted, ProviderFailures,
		ActiveSessions, WSConnections,
	)
}
