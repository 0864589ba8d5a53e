package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farum_ratelimit_decisions_total",
		Help: "Admission decisions per rate policy.",
	}, []string{"policy", "outcome"})

	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farum_completion_requests_total",
		Help: "Completion service calls by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farum_completion_latency_seconds",
		Help:    "Completion service call latency.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"purpose"})

	MoodScoring = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farum_mood_scoring_total",
		Help: "Mood scoring outcomes: stored, discarded, failed, dropped.",
	}, []string{"outcome"})

	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farum_persistence_failures_total",
		Help: "Store failures by operation and criticality.",
	}, []string{"operation", "critical"})

	TasksGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farum_tasks_generated_total",
		Help: "Task generation runs by the parser that produced the list.",
	}, []string{"parser"})
)

// PersistenceFailed counts a store failure.
func PersistenceFailed(operation string, critical bool) {
	c := "false"
	if critical {
		c = "true"
	}
	PersistenceFailures.WithLabelValues(operation, c).Inc()
}
