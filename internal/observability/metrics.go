// Package observability provides Prometheus metrics for the analysis engine.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "polalfa"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing, so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream (Data API / Gamma)
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	UpstreamRetries  *prometheus.CounterVec

	// Analysis pipeline
	WalletsAnalyzed *prometheus.CounterVec
	RejectedFills   prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	BatchDuration   *prometheus.HistogramVec
	Candidates      prometheus.Histogram

	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream HTTP requests by API and status code",
		}, []string{"api", "status"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api"}),
		UpstreamRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Total number of upstream request retries by API",
		}, []string{"api"}),

		WalletsAnalyzed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "wallets_total",
			Help:      "Total number of wallet analyses by mode and outcome",
		}, []string{"mode", "outcome"}),
		RejectedFills: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "rejected_fills_total",
			Help:      "Total number of malformed fills excluded from reconstruction",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of summary cache lookups by result",
		}, []string{"result"}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "batch_duration_seconds",
			Help:      "Duration of an analyze or top-N batch in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode"}),
		Candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "candidates",
			Help:      "Number of candidate wallets discovered per top-N request",
			Buckets:   []float64{0, 10, 50, 100, 200, 300, 500},
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by route and status",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordUpstream records one upstream HTTP round trip. status 0 means transport error.
func (m *Metrics) RecordUpstream(api string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(api, label).Inc()
	m.UpstreamLatency.WithLabelValues(api).Observe(d.Seconds())
}

// RecordRetry increments the retry counter of an upstream API.
func (m *Metrics) RecordRetry(api string) {
	if m == nil {
		return
	}
	m.UpstreamRetries.WithLabelValues(api).Inc()
}

// RecordWallet records the outcome of one wallet pipeline.
func (m *Metrics) RecordWallet(mode, outcome string) {
	if m == nil {
		return
	}
	m.WalletsAnalyzed.WithLabelValues(mode, outcome).Inc()
}

// RecordRejectedFills adds n malformed fills.
func (m *Metrics) RecordRejectedFills(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RejectedFills.Add(float64(n))
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordBatch records the duration of a whole batch.
func (m *Metrics) RecordBatch(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordCandidates records the size of a discovered candidate set.
func (m *Metrics) RecordCandidates(n int) {
	if m == nil {
		return
	}
	m.Candidates.Observe(float64(n))
}

// RecordHTTP records one served HTTP request.
func (m *Metrics) RecordHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}
