// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes used as the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds every instrument on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	polls              prometheus.Counter
	orphans            *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// New creates and registers the instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicehost_generations_total",
				Help: "Audio generations by outcome and error kind.",
			},
			[]string{"outcome", "kind"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voicehost_generation_duration_seconds",
				Help:    "Wall time from submission to recorded audio file.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
		),
		polls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voicehost_prediction_polls_total",
				Help: "Prediction status checks issued to the provider.",
			},
		),
		orphans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicehost_orphaned_predictions_total",
				Help: "Submitted predictions handed to recovery instead of being recorded inline.",
			},
			[]string{"reason"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voicehost_http_requests_total",
				Help: "HTTP requests by method and status code.",
			},
			[]string{"method", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations,
		m.generationDuration,
		m.polls,
		m.orphans,
		m.httpRequests,
	)
	return m
}

// ObserveGeneration records one finished generation. kind is empty on success.
func (m *Metrics) ObserveGeneration(outcome, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome, kind).Inc()
	if outcome == OutcomeSuccess {
		m.generationDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) IncPolls() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

func (m *Metrics) IncOrphaned(reason string) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveHTTP(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
