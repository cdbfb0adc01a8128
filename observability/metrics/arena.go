package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ArenaMetrics tracks state-machine transitions and mailbox behaviour.
type ArenaMetrics struct {
	transitions   *prometheus.CounterVec
	joinRejected  *prometheus.CounterVec
	activeArenas  prometheus.Gauge
	mailboxDepth  *prometheus.GaugeVec
	conflictRetry *prometheus.CounterVec
}

var (
	arenaOnce     sync.Once
	arenaRegistry *ArenaMetrics
)

// Arena returns the process-wide arena metrics registry, constructing and
// registering it on first use.
func Arena() *ArenaMetrics {
	arenaOnce.Do(func() {
		arenaRegistry = &ArenaMetrics{
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_arena_transitions_total",
				Help: "Count of arena state-machine transitions by from/to state.",
			}, []string{"from", "to"}),
			joinRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_arena_join_rejected_total",
				Help: "Count of rejected player-join attempts by reason.",
			}, []string{"reason"}),
			activeArenas: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "clawarena_arena_active",
				Help: "Number of arenas not yet finalized or cancelled.",
			}),
			mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clawarena_arena_mailbox_depth",
				Help: "Pending event count per arena mailbox.",
			}, []string{"arena"}),
			conflictRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_arena_cas_conflict_total",
				Help: "Count of compare-and-swap conflicts retried against the arena store.",
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			arenaRegistry.transitions,
			arenaRegistry.joinRejected,
			arenaRegistry.activeArenas,
			arenaRegistry.mailboxDepth,
			arenaRegistry.conflictRetry,
		)
	})
	return arenaRegistry
}

func (m *ArenaMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *ArenaMetrics) ObserveJoinRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.joinRejected.WithLabelValues(reason).Inc()
}

func (m *ArenaMetrics) SetActiveArenas(n int) {
	if m == nil {
		return
	}
	m.activeArenas.Set(float64(n))
}

func (m *ArenaMetrics) SetMailboxDepth(arena string, depth int) {
	if m == nil {
		return
	}
	m.mailboxDepth.WithLabelValues(arena).Set(float64(depth))
}

func (m *ArenaMetrics) ObserveConflictRetry(op string) {
	if m == nil {
		return
	}
	m.conflictRetry.WithLabelValues(op).Inc()
}
