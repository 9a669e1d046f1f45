package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selimozcann/RedirectResolver/internal/model"
)

// Metrics holds the Prometheus collectors of one resolver instance.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInflight prometheus.Gauge

	// Resolver metrics
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration prometheus.Histogram
	WalksTotal    *prometheus.CounterVec
	WalkDuration  prometheus.Histogram
	ChainLength   prometheus.Histogram
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirectresolver_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redirectresolver_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		RequestsInflight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "redirectresolver_http_requests_inflight",
				Help: "Number of HTTP requests currently inflight",
			},
		),

		ProbesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirectresolver_probes_total",
				Help: "Total number of probes by outcome",
			},
			[]string{"outcome"},
		),
		ProbeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redirectresolver_probe_duration_seconds",
				Help:    "Time until response headers arrived or the probe failed",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		WalksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirectresolver_resolves_total",
				Help: "Total number of resolved chains by stop reason",
			},
			[]string{"stop"},
		),
		WalkDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redirectresolver_resolve_duration_seconds",
				Help:    "Time to resolve a whole chain",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		ChainLength: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redirectresolver_chain_length",
				Help:    "Number of distinct URLs in resolved chains",
				Buckets: prometheus.LinearBuckets(1, 1, 12),
			},
		),
	}
}

// ObserveProbe records a single probe.
func (m *Metrics) ObserveProbe(outcome string, elapsed time.Duration) {
	m.ProbesTotal.WithLabelValues(outcome).Inc()
	m.ProbeDuration.Observe(elapsed.Seconds())
}

// ObserveWalk records a finished chain walk.
func (m *Metrics) ObserveWalk(stop model.StopReason, chainLen int, elapsed time.Duration) {
	m.WalksTotal.WithLabelValues(string(stop)).Inc()
	m.WalkDuration.Observe(elapsed.Seconds())
	m.ChainLength.Observe(float64(chainLen))
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
