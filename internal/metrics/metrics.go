// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated registry and the application collectors.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	MatchQueries  *prometheus.CounterVec // by outcome: matched, empty, invalid, error
	MatchResults  prometheus.Histogram
	IngestImages  *prometheus.CounterVec // by outcome: created, failed
	IngestBatches *prometheus.CounterVec // by outcome: ok, partial, failed, rejected
}

// New creates the collectors and registers them with a fresh registry.
// Go runtime and process collectors are included when withRuntime is true.
func New(withRuntime bool) *Metrics {
	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": "snapx"}, registry)

	if withRuntime {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m := &Metrics{
		Registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapx_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "snapx_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		MatchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapx_match_queries_total",
			Help: "Find-my-photos queries by outcome.",
		}, []string{"outcome"}),
		MatchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snapx_match_results",
			Help:    "Number of images returned per successful query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		IngestImages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapx_ingest_images_total",
			Help: "Uploaded images by outcome.",
		}, []string{"outcome"}),
		IngestBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapx_ingest_batches_total",
			Help: "Upload requests by outcome.",
		}, []string{"outcome"}),
	}

	wrapped.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.MatchQueries,
		m.MatchResults,
		m.IngestImages,
		m.IngestBatches,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
