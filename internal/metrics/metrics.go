// Package metrics holds the Prometheus collectors for the records API.
//
// Exposed series:
//
//	records_http_requests_total            counter   method, path, status
//	records_http_request_duration_seconds  histogram method, path
//	records_query_duration_seconds         histogram
//	records_query_failures_total           counter
//
// Collectors are registered on the Registerer passed to New, so tests can
// use an isolated prometheus.NewRegistry().
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	QueryDuration prometheus.Histogram
	QueryFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. gatherer backs Handler; pass the
// same registry in both positions.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "records_http_requests_total",
			Help: "Total HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "records_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "records_query_duration_seconds",
			Help:    "Latency of the records query, successful or not.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		QueryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "records_query_failures_total",
			Help: "Records queries that failed and were answered with an empty list.",
		}),
		gatherer: gatherer,
	}
}

// NewDefault registers on a fresh registry together with the Go runtime
// and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg, reg)
}

// ObserveQuery records one query attempt.
func (m *Metrics) ObserveQuery(d time.Duration, err error) {
	m.QueryDuration.Observe(d.Seconds())
	if err != nil {
		m.QueryFailures.Inc()
	}
}

// ObserveRequest records one served HTTP request. path should be the
// route template, not the raw URL.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
