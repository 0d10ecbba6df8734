// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route, method and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interview_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	// GenerationAttempts counts model calls by model and outcome (success, rate_limited, error).
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_generation_attempts_total",
			Help: "Text-generation attempts per model and outcome",
		},
		[]string{"model", "outcome"},
	)

	GenerationBackoffs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_generation_backoffs_total",
			Help: "Back-off rounds taken after every model was rate limited",
		},
	)

	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_generation_latency_seconds",
			Help:    "End-to-end latency of a generation request including fallbacks",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	// TrackingSessions is the number of samplers currently tracking.
	TrackingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_tracking_sessions",
			Help: "Behaviour samplers currently tracking",
		},
	)

	// SamplesRecorded counts samples copied into rolling buffers, by kind (gaze, pose).
	SamplesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_samples_recorded_total",
			Help: "Samples recorded into behaviour buffers",
		},
		[]string{"kind"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)
)
