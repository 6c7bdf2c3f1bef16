package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the HTTP API and the
// pipeline stages.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pipelineRuns    *prometheus.CounterVec
	pipelineSeconds *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance backed by its own registry, so tests
// can construct them independently.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eiasa",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eiasa",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eiasa",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline stage executions, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		pipelineSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eiasa",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage wall time.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
	}
}

// Handler exposes the metrics registry for a /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStage records one pipeline stage execution.
func (m *Metrics) ObserveStage(stage string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.pipelineRuns.WithLabelValues(stage, outcome).Inc()
	m.pipelineSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}
