// Package metrics provides Prometheus metrics for the newsletter curator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "curator"

var (
	// PlacementOperationsTotal counts placement store operations by outcome.
	PlacementOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_operations_total",
			Help:      "Total number of placement store operations",
		},
		[]string{"operation", "status"},
	)

	// PlacementPersistDuration measures the persistence round-trip of placement operations.
	PlacementPersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_persist_duration_seconds",
			Help:      "Duration of placement persistence calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PublishTotal counts publish attempts by planned action and outcome.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of publish attempts",
		},
		[]string{"action", "status"},
	)

	// ESPRequestDuration measures ESP API call latency.
	ESPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "esp_request_duration_seconds",
			Help:      "Duration of ESP API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "status"},
	)

	// ESPCircuitState tracks the ESP circuit breaker state (0 = closed, 1 = half-open, 2 = open).
	ESPCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "esp_circuit_state",
			Help:      "ESP circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		},
	)

	// StatusSyncTotal counts campaign status reconciliation runs by result.
	StatusSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_sync_total",
			Help:      "Total number of campaign status sync runs",
		},
		[]string{"result"},
	)

	// EventsPublishedTotal counts issue lifecycle events sent to the broker.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of issue lifecycle events published",
		},
		[]string{"status"},
	)

	// HTTPRequestDuration measures API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordPlacement records the outcome of one placement store operation.
func RecordPlacement(operation string, err error, persist time.Duration) {
	PlacementOperationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	if persist > 0 {
		PlacementPersistDuration.WithLabelValues(operation).Observe(persist.Seconds())
	}
}

// RecordPublish records a publish attempt.
func RecordPublish(action string, err error) {
	PublishTotal.WithLabelValues(action, statusLabel(err)).Inc()
}

// RecordESPRequest records one ESP API call.
func RecordESPRequest(operation string, err error, duration time.Duration) {
	ESPRequestDuration.WithLabelValues(operation, statusLabel(err)).Observe(duration.Seconds())
}

// SetESPCircuitState records the breaker state as a gauge value.
func SetESPCircuitState(state int) {
	ESPCircuitState.Set(float64(state))
}

// RecordStatusSync records a status reconciliation result ("unchanged", "updated", "error").
func RecordStatusSync(result string) {
	StatusSyncTotal.WithLabelValues(result).Inc()
}

// RecordEventPublished records a lifecycle event publish attempt.
func RecordEventPublished(err error) {
	EventsPublishedTotal.WithLabelValues(statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
