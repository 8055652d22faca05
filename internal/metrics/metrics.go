// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	assessments     *prometheus.CounterVec
	modelFailures   *prometheus.CounterVec
	narratives      *prometheus.CounterVec
	persistFailures prometheus.Counter
}

// New creates and registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strokecare_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strokecare_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strokecare_assessments_total",
				Help: "Total number of risk assessments by source and level",
			},
			[]string{"source", "level"},
		),
		modelFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strokecare_model_failures_total",
				Help: "Model terms that fell back to the rule-based result",
			},
			[]string{"model"},
		),
		narratives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strokecare_narrative_total",
				Help: "Narratives served by origin",
			},
			[]string{"outcome"},
		),
		persistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "strokecare_persist_failures_total",
				Help: "Assessments that could not be stored",
			},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.assessments,
		m.modelFailures,
		m.narratives,
		m.persistFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordAssessment counts a completed assessment.
func (m *Metrics) RecordAssessment(source, level string) {
	m.assessments.WithLabelValues(source, level).Inc()
}

// RecordModelFailure counts a degraded model term.
func (m *Metrics) RecordModelFailure(model string) {
	m.modelFailures.WithLabelValues(model).Inc()
}

// RecordNarrative counts a served narrative by origin.
func (m *Metrics) RecordNarrative(outcome string) {
	m.narratives.WithLabelValues(outcome).Inc()
}

// RecordPersistFailure counts a failed store write.
func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Inc()
}
