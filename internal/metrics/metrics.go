// Package metrics exposes Prometheus collectors for the query pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes used as label values on QueriesTotal.
const (
	OutcomeAnswered = "answered"
	OutcomeRefused  = "refused"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

var (
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbot_queries_total",
		Help: "Queries processed by the pipeline, labeled by outcome.",
	}, []string{"outcome"})

	TokensUsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_tokens_used_total",
		Help: "Estimated tokens consumed by generation.",
	})

	CreditsChargedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_credits_charged_total",
		Help: "Credits charged against user balances.",
	})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatbot_query_duration_seconds",
		Help:    "End to end latency of one pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
)
