package metrics

import "github.com/prometheus/client_golang/prometheus"

// Detection pipeline Prometheus metrics.
var (
	DetectionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "detection_runs_total",
			Help:      "Total number of detection runs by outcome",
		},
		[]string{"status"}, // "ok", "degraded", "error"
	)

	DetectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "veritex",
			Name:      "detection_duration_seconds",
			Help:      "End-to-end detection run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DetectionShortlistSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "veritex",
			Name:      "detection_shortlist_size",
			Help:      "Stage 1 shortlist size per run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	DetectionCandidatesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "detection_candidates_dropped_total",
			Help:      "Candidates dropped on per-candidate scoring timeouts",
		},
	)

	ReportsAnchoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "reports_anchored_total",
			Help:      "Reports anchored to the ledger",
		},
	)
)

var detMetricsRegistered bool

// RegisterDetectionMetrics registers Prometheus detection metrics. Must be called once from main.
func RegisterDetectionMetrics() {
	if detMetricsRegistered {
		return
	}
	prometheus.MustRegister(DetectionRunsTotal)
	prometheus.MustRegister(DetectionDuration)
	prometheus.MustRegister(DetectionShortlistSize)
	prometheus.MustRegister(DetectionCandidatesDropped)
	prometheus.MustRegister(ReportsAnchoredTotal)
	detMetricsRegistered = true
}
