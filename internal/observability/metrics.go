package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicehub_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devicehub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EligibilityDenials counts eligibility check failures by reason category.
	EligibilityDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicehub_eligibility_denials_total",
		Help: "Total number of device request eligibility denials by reason",
	}, []string{"reason"})

	// RequestTransitions counts request lifecycle transitions by target status.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicehub_request_transitions_total",
		Help: "Total number of device request status transitions by target status",
	}, []string{"to_status"})

	// RequestConflicts counts storage-level conflicts hit while creating requests.
	RequestConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devicehub_request_conflicts_total",
		Help: "Total number of device request creations that lost a storage-level race",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
