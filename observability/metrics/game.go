package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GameMetrics tracks round progression and move submission for the game engine.
type GameMetrics struct {
	roundsResolved *prometheus.CounterVec
	movesSubmitted *prometheus.CounterVec
	autoMoves      *prometheus.CounterVec
	roundLatency   *prometheus.HistogramVec
}

var (
	gameOnce     sync.Once
	gameRegistry *GameMetrics
)

func Game() *GameMetrics {
	gameOnce.Do(func() {
		gameRegistry = &GameMetrics{
			roundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_game_rounds_resolved_total",
				Help: "Count of rounds resolved by game type.",
			}, []string{"game_type"}),
			movesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_game_moves_submitted_total",
				Help: "Count of player moves accepted by game type.",
			}, []string{"game_type"}),
			autoMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_game_auto_moves_total",
				Help: "Count of auto-moves generated for absent players by game type.",
			}, []string{"game_type"}),
			roundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "clawarena_game_round_duration_seconds",
				Help:    "Wall-clock duration of a resolved round.",
				Buckets: prometheus.DefBuckets,
			}, []string{"game_type"}),
		}
		prometheus.MustRegister(
			gameRegistry.roundsResolved,
			gameRegistry.movesSubmitted,
			gameRegistry.autoMoves,
			gameRegistry.roundLatency,
		)
	})
	return gameRegistry
}

func (m *GameMetrics) ObserveRoundResolved(gameType string) {
	if m == nil {
		return
	}
	m.roundsResolved.WithLabelValues(gameType).Inc()
}

func (m *GameMetrics) ObserveMoveSubmitted(gameType string) {
	if m == nil {
		return
	}
	m.movesSubmitted.WithLabelValues(gameType).Inc()
}

func (m *GameMetrics) ObserveAutoMove(gameType string) {
	if m == nil {
		return
	}
	m.autoMoves.WithLabelValues(gameType).Inc()
}

func (m *GameMetrics) ObserveRoundDuration(gameType string, seconds float64) {
	if m == nil {
		return
	}
	m.roundLatency.WithLabelValues(gameType).Observe(seconds)
}
