// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationRequestsTotal    *prometheus.CounterVec
	searchRequestsTotal        *prometheus.CounterVec
	pageFetchesTotal           *prometheus.CounterVec
	auditResultsTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		generationRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_generation_requests_total",
				Help: "Total structured generation requests, labeled by phase and outcome.",
			},
			[]string{"phase", "outcome"},
		)

		searchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_search_requests_total",
				Help: "Total web search requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pageFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_page_fetches_total",
				Help: "Total page content fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		auditResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_results_total",
				Help: "Total completed audits, labeled by content source.",
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGeneration increments the generation counter for the given
// pipeline phase and outcome.
func ObserveGeneration(phase, outcome string) {
	generationRequestsTotal.WithLabelValues(phase, outcome).Inc()
}

// ObserveSearch increments the search counter for the given outcome.
func ObserveSearch(outcome string) {
	searchRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch increments the page fetch counter for the given outcome.
func ObserveFetch(outcome string) {
	pageFetchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAuditResult increments the audit result counter for the given
// content source ("live" or "blocked").
func ObserveAuditResult(source string) {
	auditResultsTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
