// Package metrics exposes Prometheus counters for payment operations.
// wallet_domain_errors_total{code="INTERNAL_ERROR"} is the alerting signal; every other code is an
// expected client outcome.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for RequestsTotal.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

type Metrics struct {
	RequestsTotal        *prometheus.CounterVec   // by operation and outcome
	DomainErrorsTotal    *prometheus.CounterVec   // by error code
	ProviderLookupSecond *prometheus.HistogramVec // by provider name

	registry *prometheus.Registry
}

// New registers all collectors on a dedicated registry so tests can build isolated instances.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_requests_total",
			Help: "Payment operations handled, by operation and outcome",
		}, []string{"operation", "outcome"}),

		DomainErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_domain_errors_total",
			Help: "Domain errors returned to callers, by error code",
		}, []string{"code"}),

		ProviderLookupSecond: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_provider_lookup_duration_seconds",
			Help:    "Duration of user-record provider lookups",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 3},
		}, []string{"provider"}),

		registry: reg,
	}
	reg.MustRegister(m.RequestsTotal, m.DomainErrorsTotal, m.ProviderLookupSecond)
	return m
}

// RecordRequest counts one finished operation.
func (m *Metrics) RecordRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordDomainError counts one error returned to a caller.
func (m *Metrics) RecordDomainError(code string) {
	if m == nil {
		return
	}
	m.DomainErrorsTotal.WithLabelValues(code).Inc()
}

// ObserveLookup records how long a provider lookup took.
func (m *Metrics) ObserveLookup(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLookupSecond.WithLabelValues(provider).Observe(d.Seconds())
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
