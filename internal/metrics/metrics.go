// Package metrics exposes Prometheus counters for the Hubstaff integration.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters recorded by the integration layer.
type Metrics struct {
	Registry *prometheus.Registry

	requests     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// New registers all counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklens_hubstaff_requests_total",
			Help: "Hubstaff API responses by HTTP status.",
		}, []string{"status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklens_hubstaff_retries_total",
			Help: "Hubstaff API retries by reason.",
		}, []string{"reason"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklens_token_refresh_total",
			Help: "Token refresh attempts by outcome.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracklens_cache_lookups_total",
			Help: "Organization cache lookups by cache and result.",
		}, []string{"cache", "result"}),
	}
	m.Registry.MustRegister(m.requests, m.retries, m.refreshes, m.cacheLookups)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveResponse counts a completed HTTP exchange.
func (m *Metrics) ObserveResponse(status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveRetry counts a retry; reason is "rate_limited" or "network".
func (m *Metrics) ObserveRetry(reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

// ObserveRefresh counts a token refresh; result is "success" or "failure".
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

// ObserveCache counts a cache lookup.
func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}
