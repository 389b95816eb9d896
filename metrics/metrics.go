// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirector_decisions_total",
			Help: "Number of request decisions by outcome",
		},
		[]string{"outcome"},
	)
	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redirector_evaluation_duration_seconds",
			Help:    "Time spent evaluating a request against the snapshot",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
	)
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirector_decision_cache_hits_total",
			Help: "Number of decision cache hits",
		},
	)
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirector_decision_cache_misses_total",
			Help: "Number of decision cache misses",
		},
	)
	reloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirector_snapshot_reloads_total",
			Help: "Number of snapshot reload attempts by result",
		},
		[]string{"result"},
	)
)

// ObserveDecision records one evaluated request.
func ObserveDecision(outcome string, elapsed time.Duration) {
	decisions.WithLabelValues(outcome).Inc()
	evaluationDuration.Observe(elapsed.Seconds())
}

// ObserveCache records a decision cache lookup.
func ObserveCache(hit bool) {
	if hit {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}
}

// ObserveReload records a snapshot reload attempt.
func ObserveReload(err error) {
	if err != nil {
		reloads.WithLabelValues("failure").Inc()
	} else {
		reloads.WithLabelValues("success").Inc()
	}
}
