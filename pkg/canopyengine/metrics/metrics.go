package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "canopy"
	subsystem = "engine"
)

var (
	// RequestsTotal counts engine requests by operation and result
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Number of engine requests by operation and result",
		},
		[]string{"operation", "result"}, // result: "success", "invalid_input", "not_found", "error"
	)

	// RequestDuration measures engine request latency by operation
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Latency of engine requests",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 15),
		},
		[]string{"operation"},
	)

	// PredictionTierAttempts counts fallback chain attempts by tier and outcome
	PredictionTierAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "prediction_tier_attempts_total",
			Help:      "Number of prediction tier attempts by strategy and result",
		},
		[]string{"strategy", "result"}, // result: "success", "error", "timeout", "invalid_input"
	)

	// RegistryUnits reports the number of spatial units loaded at startup
	RegistryUnits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registry_units",
			Help:      "Number of spatial units in the feature registry",
		},
	)

	// RegistryLookups counts feature registry lookups by outcome
	RegistryLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registry_lookups_total",
			Help:      "Number of feature registry lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss"
	)
)

func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PredictionTierAttempts)
	prometheus.MustRegister(RegistryUnits)
	prometheus.MustRegister(RegistryLookups)
}
