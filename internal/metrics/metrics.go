package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPRequestSize       prometheus.HistogramVec
	HTTPResponseSize      prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Recommendation metrics
	RecommendationsServed prometheus.CounterVec
	RecommendationLatency prometheus.HistogramVec

	// Advisor metrics
	AdvisorRequestsTotal  prometheus.CounterVec
	AdvisorRequestLatency prometheus.HistogramVec
	AdvisorFallbacksTotal prometheus.CounterVec
	AdvisorQueueDepth     prometheus.Gauge

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			RecommendationsServed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendations_served_total",
					Help: "Total number of recommendation responses by strategy",
				},
				[]string{"strategy"},
			),
			RecommendationLatency: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recommendation_duration_seconds",
					Help:    "Time to compute a recommendation in seconds",
					Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"strategy"},
			),

			AdvisorRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "advisor_requests_total",
					Help: "Total number of advisor requests by outcome",
				},
				[]string{"outcome"},
			),
			AdvisorRequestLatency: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "advisor_request_duration_seconds",
					Help:    "Advisor round-trip latency in seconds",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"outcome"},
			),
			AdvisorFallbacksTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "advisor_fallbacks_total",
					Help: "Total number of advisor failures served by a fallback strategy",
				},
				[]string{"reason"},
			),
			AdvisorQueueDepth: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "advisor_queue_depth",
					Help: "Number of advisor jobs waiting in the queue",
				},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// Recording helpers

func RecordRecommendation(strategy string) {
	Get().RecommendationsServed.WithLabelValues(strategy).Inc()
}

func RecordAdvisorRequest(outcome string, seconds float64) {
	m := Get()
	m.AdvisorRequestsTotal.WithLabelValues(outcome).Inc()
	m.AdvisorRequestLatency.WithLabelValues(outcome).Observe(seconds)
}

func RecordAdvisorFallback(reason string) {
	Get().AdvisorFallbacksTotal.WithLabelValues(reason).Inc()
}

func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
