package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mockapi"

// Cache results recorded by ObserveCache.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// Metrics holds the server's collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cacheResults     *prometheus.CounterVec
	cacheWriteErrors prometheus.Counter
	cacheSwept       prometheus.Counter
	pipelineDuration prometheus.Histogram
	resultCount      prometheus.Histogram
	adminRequests    *prometheus.CounterVec
}

// New creates Metrics registered on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of mock requests served.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Mock request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Response cache lookups by result.",
		}, []string{"cache"}),
		cacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Response cache writes that failed.",
		}),
		cacheSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_entries_total",
			Help:      "Stale cache entries removed by the sweeper.",
		}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent in the query pipeline and serializer.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_count",
			Help:      "Records returned per pipeline run before pagination.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		adminRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_requests_total",
			Help:      "Admin API requests by operation and status.",
		}, []string{"operation", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.cacheResults,
		m.cacheWriteErrors,
		m.cacheSwept,
		m.pipelineDuration,
		m.resultCount,
		m.adminRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served mock request.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveCache records a cache lookup result.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(result).Inc()
}

// CacheWriteFailed counts a failed cache write.
func (m *Metrics) CacheWriteFailed() {
	if m == nil {
		return
	}
	m.cacheWriteErrors.Inc()
}

// ObserveSweep records a cache sweep. It matches cache.SweepObserver.
func (m *Metrics) ObserveSweep(removed int, _ time.Duration, _ error) {
	if m == nil {
		return
	}
	m.cacheSwept.Add(float64(removed))
}

// ObservePipeline records a pipeline run.
func (m *Metrics) ObservePipeline(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.pipelineDuration.Observe(d.Seconds())
	m.resultCount.Observe(float64(results))
}

// ObserveAdmin records an admin API request.
func (m *Metrics) ObserveAdmin(operation string, status int) {
	if m == nil {
		return
	}
	m.adminRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}
