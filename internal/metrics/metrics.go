// Package metrics exposes prometheus instrumentation for the chat pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prom records pipeline outcomes. It implements service.PipelineMetrics.
type Prom struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewProm builds and registers the collectors on the given registerer
// (prometheus.DefaultRegisterer in production, a fresh registry in tests).
func NewProm(reg prometheus.Registerer) *Prom {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coldsense_chat_requests_total",
		Help: "Chat requests by classified operation and outcome.",
	}, []string{"operation", "outcome"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coldsense_chat_request_seconds",
		Help:    "End-to-end chat pipeline latency.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"outcome"})

	reg.MustRegister(requests, latency)

	return &Prom{requests: requests, latency: latency}
}

// ObserveRequest counts one finished pipeline run and its latency.
func (p *Prom) ObserveRequest(operation, outcome string, seconds float64) {
	p.requests.WithLabelValues(operation, outcome).Inc()
	p.latency.WithLabelValues(outcome).Observe(seconds)
}
