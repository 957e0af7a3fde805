package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "c4_open_connections",
		Help: "Currently open websocket connections",
	})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "c4_live_sessions",
		Help: "Sessions currently held in the registry",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "c4_matchmaking_queue_depth",
		Help: "Identities waiting in the matchmaking queue",
	})

	MovesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "c4_moves_applied_total",
		Help: "Legal moves applied across all sessions",
	})

	SessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "c4_sessions_completed_total",
		Help: "Finished sessions by reason",
	}, []string{"reason"})

	BotMoveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "c4_bot_move_duration_seconds",
		Help:    "Wall time of one bot move computation",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)
