// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCallDuration tracks successful model call latency.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model"},
	)

	// LLMAttemptsTotal counts every model call attempt, including retries.
	LLMAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_attempts_total",
			Help: "Total model call attempts",
		},
		[]string{"provider", "outcome"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// GenerationDuration tracks end-to-end generation requests.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Generation request duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 240},
		},
		[]string{"mode", "outcome"},
	)

	// GeneratedFiles tracks how many files each successful generation returned.
	GeneratedFiles = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_files",
			Help:    "Files returned per generation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"mode"},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks total messages stored.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages stored",
		},
		[]string{"role"},
	)

	// EventsPublished tracks conversation events sent to NATS.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Conversation events published",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMAttempt counts a single model call attempt.
func RecordLLMAttempt(provider, outcome string) {
	LLMAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordLLMCall records metrics for a successful model call.
func RecordLLMCall(model string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(model).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordGeneration records a finished generation request. mode is "fresh" or "update".
func RecordGeneration(mode, outcome string, duration float64, files int) {
	GenerationDuration.WithLabelValues(mode, outcome).Observe(duration)
	if outcome == "success" {
		GeneratedFiles.WithLabelValues(mode).Observe(float64(files))
	}
}

// RecordMessage counts a stored message.
func RecordMessage(role string) {
	MessagesTotal.WithLabelValues(role).Inc()
}

// RecordConversation counts a created conversation.
func RecordConversation() {
	ConversationsTotal.Inc()
}

// RecordEvent counts a publish attempt.
func RecordEvent(eventType, status string) {
	EventsPublished.WithLabelValues(eventType, status).Inc()
}
