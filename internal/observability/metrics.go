package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream request outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Metrics contains the Prometheus metrics for the explorer.
// All collectors are registered with the default registry via promauto.
type Metrics struct {
	// HTTPRequestsTotal counts served requests by route pattern, method and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes handler latency in seconds by route pattern.
	HTTPRequestDuration *prometheus.HistogramVec

	// UpstreamRequestsTotal counts OpenAlex calls by entity kind and outcome.
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestDuration observes OpenAlex call latency in seconds by entity kind.
	UpstreamRequestDuration *prometheus.HistogramVec

	// CacheHits counts response cache hits.
	CacheHits prometheus.Counter

	// CacheMisses counts response cache misses.
	CacheMisses prometheus.Counter

	// AbstractsReconstructed counts abstracts rebuilt from inverted indexes.
	AbstractsReconstructed prometheus.Counter
}

// NewMetrics creates a Metrics instance. The namespace prefixes every metric
// name.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"route"}),

		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests made to the OpenAlex API",
		}, []string{"entity", "outcome"}),
		UpstreamRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of OpenAlex API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"entity"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		}),

		AbstractsReconstructed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_reconstructed_total",
			Help:      "Total number of abstracts reconstructed from inverted indexes",
		}),
	}
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordUpstreamRequest records an OpenAlex call and its outcome.
func (m *Metrics) RecordUpstreamRequest(entity, outcome string, durationSeconds float64) {
	m.UpstreamRequestsTotal.WithLabelValues(entity, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(entity).Observe(durationSeconds)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordAbstractReconstructed records one rebuilt abstract.
func (m *Metrics) RecordAbstractReconstructed() {
	m.AbstractsReconstructed.Inc()
}
