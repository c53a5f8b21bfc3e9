package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and generation Prometheus metrics.
var (
	RetrievalSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "calia",
			Name:      "retrieval_search_duration_seconds",
			Help:      "Vector index search duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	RetrievalChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "calia",
			Name:      "retrieval_chunks",
			Help:      "Number of chunks returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 4, 8, 16},
		},
	)

	RetrievalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calia",
			Name:      "retrieval_degraded_total",
			Help:      "Retrievals that degraded to an empty result",
		},
		[]string{"reason"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calia",
			Name:      "generation_requests_total",
			Help:      "Total number of language model generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "calia",
			Name:      "generation_fallbacks_total",
			Help:      "Answers served with the fallback text",
		},
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "calia",
			Name:      "index_chunks",
			Help:      "Number of chunks currently held by the vector index",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers retrieval and generation metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalSearchDuration)
	prometheus.MustRegister(RetrievalChunks)
	prometheus.MustRegister(RetrievalDegradedTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationFallbacksTotal)
	prometheus.MustRegister(IndexChunks)
	pipelineMetricsRegistered = true
}
