// Package metrics holds the Prometheus collectors for the fetch pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application. It is passed
// explicitly to the components that record into it. A nil *Metrics records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Transport
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Query cache
	cacheLookupsTotal      *prometheus.CounterVec
	fetchRetriesTotal      prometheus.Counter
	staleResultsDiscarded  prometheus.Counter
	pagesLoadedTotal       *prometheus.CounterVec
	transactionsLoadedHist prometheus.Histogram
	cacheEntries           prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on registry and gathers from
// gatherer for Handler.
func NewWithRegistry(registry prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		gatherer: gatherer,

		apiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total number of transport requests by path and status",
			},
			[]string{"path", "status"},
		),
		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "Duration of transport requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"path"},
		),

		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_cache_lookups_total",
				Help: "Query cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		fetchRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "query_fetch_retries_total",
				Help: "Automatic page fetch retries",
			},
		),
		staleResultsDiscarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "query_stale_results_discarded_total",
				Help: "Page results discarded because their key or generation was no longer current",
			},
		),
		pagesLoadedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_pages_loaded_total",
				Help: "Pages merged into the cache by outcome",
			},
			[]string{"outcome"},
		),
		transactionsLoadedHist: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "query_page_size",
				Help:    "Number of transactions per loaded page",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "query_cache_entries",
				Help: "Number of keys held by the query cache",
			},
		),
	}
}

// Handler exposes the gathered metrics over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Transport metric helpers

// RecordRequest records a transport request. status is 0 for requests that
// never received a response.
func (m *Metrics) RecordRequest(path string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequestsTotal.WithLabelValues(path, label).Inc()
	m.apiRequestDuration.WithLabelValues(path).Observe(seconds)
}

// Query cache metric helpers

// RecordLookup records a cache hit or miss.
func (m *Metrics) RecordLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRetry records an automatic retry.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.fetchRetriesTotal.Inc()
}

// RecordDiscarded records a result dropped for a stale key.
func (m *Metrics) RecordDiscarded() {
	if m == nil {
		return
	}
	m.staleResultsDiscarded.Inc()
}

// RecordPage records a completed page fetch.
func (m *Metrics) RecordPage(err error, count int) {
	if m == nil {
		return
	}
	if err != nil {
		m.pagesLoadedTotal.WithLabelValues("error").Inc()
		return
	}
	m.pagesLoadedTotal.WithLabelValues("success").Inc()
	m.transactionsLoadedHist.Observe(float64(count))
}

// SetCacheEntries records the number of live cache keys.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}
