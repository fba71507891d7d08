package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_explorer_new")

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.UpstreamRequestsTotal)
	assert.NotNil(t, m.UpstreamRequestDuration)
	assert.NotNil(t, m.CacheHits)
	assert.NotNil(t, m.CacheMisses)
	assert.NotNil(t, m.AbstractsReconstructed)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics("test_http_request")

	m.RecordHTTPRequest("/works/{id}", "GET", 200, 0.12)
	m.RecordHTTPRequest("/works/{id}", "GET", 404, 0.03)
	m.RecordHTTPRequest("/works/{id}", "GET", 200, 0.08)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/works/{id}", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/works/{id}", "GET", "404")))

	count, err := getHistogramSampleCount(m.HTTPRequestDuration.WithLabelValues("/works/{id}").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRecordUpstreamRequest(t *testing.T) {
	m := NewMetrics("test_upstream_request")

	m.RecordUpstreamRequest("works", OutcomeSuccess, 0.4)
	m.RecordUpstreamRequest("works", OutcomeRateLimited, 1.2)
	m.RecordUpstreamRequest("authors", OutcomeNotFound, 0.1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("works", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("works", OutcomeRateLimited)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("authors", OutcomeNotFound)))

	count, err := getHistogramSampleCount(m.UpstreamRequestDuration.WithLabelValues("works").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRecordCache(t *testing.T) {
	m := NewMetrics("test_cache")

	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheMisses))
}

func TestRecordAbstractReconstructed(t *testing.T) {
	m := NewMetrics("test_abstracts")

	initial := testutil.ToFloat64(m.AbstractsReconstructed)
	m.RecordAbstractReconstructed()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.AbstractsReconstructed))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
