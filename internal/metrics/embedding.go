package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding backend metrics. The detect usecase degrades to lexical-only
// scoring when the backend fails, so the error counter is the first place
// to look when reports start coming back degraded.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "embedding_requests_total",
			Help:      "Embedding API requests by outcome",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "veritex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding API request latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "embedding_tokens_total",
			Help:      "Embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veritex",
			Name:      "embedding_errors_total",
			Help:      "Embedding failures by error type",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var embRegistered bool

// RegisterEmbeddingMetrics registers the embedding collectors. Called once
// from main; the guard keeps repeated wiring in tests from panicking.
func RegisterEmbeddingMetrics() {
	if embRegistered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
	)
	embRegistered = true
}
