// Package metrics declares the Prometheus collectors exposed at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharinghood_http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharinghood_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CounterOps tracks unread-counter cache calls; result is ok, error or rejected.
	CounterOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharinghood_counter_operations_total",
			Help: "Unread notification counter cache operations",
		},
		[]string{"op", "result"},
	)

	SideEffects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharinghood_side_effects_total",
			Help: "Side-effect deliveries by channel and result (delivered, skipped, dropped)",
		},
		[]string{"channel", "result"},
	)

	PubSubMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharinghood_pubsub_messages_total",
			Help: "Messages published to or received from the notification channel",
		},
		[]string{"direction"},
	)

	WSSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharinghood_ws_subscribers",
			Help: "Active websocket subscriptions to notification messages",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sharinghood_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordCounterOp records the outcome of a counter cache call.
func RecordCounterOp(op, result string) {
	CounterOps.WithLabelValues(op, result).Inc()
}

// RecordSideEffect records the outcome of one side-effect delivery.
func RecordSideEffect(channel, result string) {
	SideEffects.WithLabelValues(channel, result).Inc()
}
