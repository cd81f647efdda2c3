package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dice_bets_placed_total",
		Help: "Bets accepted for settlement.",
	})

	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dice_bets_settled_total",
		Help: "Bets settled, partitioned by outcome.",
	}, []string{"outcome"})

	BetsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dice_bets_rejected_total",
		Help: "Bets rejected before any state mutation.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dice_verifications_total",
		Help: "Public fairness verifications, partitioned by result.",
	}, []string{"valid"})

	SeedRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dice_seed_rotations_total",
		Help: "Seed pairs rotated and revealed.",
	})

	NonceLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dice_nonce_lock_timeouts_total",
		Help: "Nonce lock acquisitions that timed out.",
	})

	SettleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dice_bet_settle_duration_seconds",
		Help:    "Time from nonce issue to settled bet row.",
		Buckets: prometheus.DefBuckets,
	})
)
