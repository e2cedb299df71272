// Package metrics holds the Prometheus collectors exposed at
// /metrics/prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalcraft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposalcraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	authorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalcraft_authorizations_total",
			Help: "License gate decisions by outcome",
		},
		[]string{"outcome"},
	)

	abuseFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalcraft_abuse_flags_total",
			Help: "Abuse rules that fired, by rule",
		},
		[]string{"flag"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalcraft_generations_total",
			Help: "Text generation calls by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposalcraft_generation_duration_seconds",
			Help:    "Duration of text generation calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model"},
	)

	resumeExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalcraft_resume_extractions_total",
			Help: "Resume extractions by document kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAuthorization counts one gate decision. outcome is "allowed" or the
// denial reason.
func ObserveAuthorization(outcome string) {
	authorizationsTotal.WithLabelValues(outcome).Inc()
}

func ObserveAbuseFlag(flag string) {
	abuseFlagsTotal.WithLabelValues(flag).Inc()
}

func ObserveGeneration(platform, model, outcome string, elapsed time.Duration) {
	generationsTotal.WithLabelValues(platform, outcome).Inc()
	generationDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

func ObserveExtraction(kind, outcome string) {
	resumeExtractionsTotal.WithLabelValues(kind, outcome).Inc()
}
