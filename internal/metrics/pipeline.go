package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval pipeline Prometheus metrics.
var (
	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"provider", "model", "status"},
	)

	RerankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_request_duration_seconds",
			Help:      "Rerank request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider", "model"},
	)

	RerankMalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_malformed_total",
			Help:      "Reranked lines dropped because they could not be parsed",
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of chat model requests",
		},
		[]string{"purpose", "model", "status"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each retrieval pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Collaborator call retries after a failed attempt",
		},
		[]string{"collaborator"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers rerank, chat model, stage and retry metrics. Safe to call more than once.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			RerankRequestsTotal,
			RerankRequestDuration,
			RerankMalformedTotal,
			LLMRequestsTotal,
			StageDuration,
			RetryAttemptsTotal,
		)
	})
}
