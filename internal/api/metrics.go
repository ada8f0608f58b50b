package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK         = "ok"
	outcomeInvalid    = "invalid"
	outcomeBadRequest = "bad_request"
	outcomeError      = "error"
	outcomeTimeout    = "timeout"
)

// Metrics instruments simulate requests on a registry owned by the handler.
type Metrics struct {
	registry    *prometheus.Registry
	simulations *prometheus.CounterVec
	duration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrosim_simulations_total",
			Help: "Total simulate requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hydrosim_simulation_duration_seconds",
			Help:    "Histogram of simulation durations.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.simulations,
		m.duration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	m.simulations.WithLabelValues(outcome).Inc()
	if outcome != outcomeBadRequest {
		m.duration.Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
