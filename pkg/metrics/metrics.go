package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minignet_operations_total",
			Help: "Total operations processed",
		},
		[]string{"op", "status"},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minignet_sessions_created_total",
			Help: "Total sessions created",
		},
	)

	UpdatesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minignet_updates_recorded_total",
			Help: "Total round updates recorded",
		},
	)

	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minignet_messages_posted_total",
			Help: "Total messages posted",
		},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minignet_active_connections",
			Help: "Currently open websocket connections",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minignet_rate_limit_hits_total",
			Help: "Total requests rejected by the per-connection rate limit",
		},
	)
)
