package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_responses_total",
		Help: "Completed response pipeline runs by outcome.",
	}, []string{"outcome"})

	directivesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_directives_total",
		Help: "Directives parsed out of model replies by kind.",
	}, []string{"kind"})

	drippedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_dripped_messages_total",
		Help: "Text bubbles appended by the sentence dripper.",
	})

	completionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_completion_duration_seconds",
		Help:    "Latency of completion backend calls.",
		Buckets: prometheus.DefBuckets,
	})
)
