// Package metrics provides Prometheus metrics for device discovery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "v4lfind",
		Subsystem: "discovery",
		Name:      "probes_total",
		Help:      "Discovery passes by outcome",
	}, []string{"outcome"})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "v4lfind",
		Subsystem: "discovery",
		Name:      "candidates_total",
		Help:      "Device node candidates examined, by outcome",
	}, []string{"outcome"})

	mediaMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "v4lfind",
		Subsystem: "discovery",
		Name:      "media_matches_total",
		Help:      "Media controller nodes correlated with a video device",
	})

	probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "v4lfind",
		Subsystem: "discovery",
		Name:      "probe_duration_seconds",
		Help:      "Wall time of a discovery pass",
		Buckets:   prometheus.DefBuckets,
	})
)

// Candidate outcomes recorded by RecordCandidate.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// RecordProbe records the outcome and duration of a discovery pass.
func RecordProbe(outcome string, seconds float64) {
	probesTotal.WithLabelValues(outcome).Inc()
	probeDuration.Observe(seconds)
}

// RecordCandidate records the outcome of a single device node candidate.
func RecordCandidate(outcome string) {
	candidatesTotal.WithLabelValues(outcome).Inc()
}

// RecordMediaMatch records a successful media controller correlation.
func RecordMediaMatch() {
	mediaMatchesTotal.Inc()
}
