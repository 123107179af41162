package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.ObserveRequest("POST", 404, time.Millisecond)
	m.ObserveCache(CacheHit)
	m.ObserveCache(CacheMiss)
	m.ObserveCache(CacheMiss)
	m.CacheWriteFailed()
	m.ObserveSweep(3, time.Millisecond, nil)
	m.ObserveAdmin("publish", 201)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheResults.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheResults.WithLabelValues(CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheWriteErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.adminRequests.WithLabelValues("publish", "201")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", 200, time.Millisecond)
		m.ObserveCache(CacheHit)
		m.CacheWriteFailed()
		m.ObserveSweep(1, 0, nil)
		m.ObservePipeline(time.Millisecond, 1)
		m.ObserveAdmin("list", 200)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObservePipeline(2*time.Millisecond, 10)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.True(t, strings.Contains(text, "mockapi_pipeline_duration_seconds_count 1"), text)
	assert.Contains(t, text, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveCache(CacheBypass)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.cacheResults.WithLabelValues(CacheBypass)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cacheResults.WithLabelValues(CacheBypass)))
}
