// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BotEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of inbound chat events by kind",
		},
		[]string{"kind"},
	)

	ConversationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_conversations_completed_total",
			Help: "Total number of conversations that reached a terminal outcome",
		},
		[]string{"outcome"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of provider API calls by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "provider_request_duration_seconds",
			Help: "Duration of provider API calls in seconds",
		},
		[]string{"endpoint"},
	)
)
