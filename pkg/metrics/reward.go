package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Outcome of every reward draw (won, no_win, no_rewards, unavailable, error).
	RewardDrawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reward_draws_total",
		Help: "Count of reward draws by outcome",
	}, []string{"outcome"})

	RewardStockConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reward_stock_conflicts_total",
		Help: "Draws that lost a stock race and had to be retried",
	})

	RewardDrawLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reward_draw_latency_seconds",
		Help:    "Latency of a reward draw including stock consumption",
		Buckets: prometheus.DefBuckets,
	})

	SyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "config_sync_total",
		Help: "Reward/action set synchronizations by kind and result",
	}, []string{"kind", "result"})

	PlayCooldownRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "play_cooldown_rejections_total",
		Help: "Plays rejected because the user is still in the cooldown window",
	})

	PlaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plays_total",
		Help: "Plays recorded",
	})
)

func Init() {
	prometheus.MustRegister(
		RewardDrawsTotal,
		RewardStockConflicts,
		RewardDrawLatency,
		SyncTotal,
		PlayCooldownRejections,
		PlaysTotal,
	)
}
