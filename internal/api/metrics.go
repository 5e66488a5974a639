package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// #region metrics
// Metrics holds the playground's Prometheus collectors on a private registry.
// It also serves as the playground's Observer.
type Metrics struct {
	registry *prometheus.Registry

	derivations     *prometheus.CounterVec
	exports         *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		derivations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playground_derivations_total",
			Help: "Derivations computed, by scenario",
		}, []string{"scenario"}),
		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playground_exports_total",
			Help: "Export attempts by format and outcome",
		}, []string{"format", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playground_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"route", "method"}),
	}
}

// Derived counts one derivation of scenarioID.
func (m *Metrics) Derived(scenarioID string) {
	m.derivations.WithLabelValues(scenarioID).Inc()
}

// Exported counts one export attempt.
func (m *Metrics) Exported(format, outcome string) {
	m.exports.WithLabelValues(format, outcome).Inc()
}

func (m *Metrics) observeRequest(route, method string, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// #endregion metrics
