package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// AgentMetrics tracks the autonomous host agent's creation cycle.
type AgentMetrics struct {
	cyclesRun        prometheus.Counter
	creationsByTier  *prometheus.CounterVec
	creationFailures *prometheus.CounterVec
	tierPaused       *prometheus.GaugeVec
	confidence       *prometheus.GaugeVec
}

var (
	agentOnce     sync.Once
	agentRegistry *AgentMetrics
)

func Agent() *AgentMetrics {
	agentOnce.Do(func() {
		agentRegistry = &AgentMetrics{
			cyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "clawarena_agent_cycles_total",
				Help: "Count of host agent market-analysis cycles executed.",
			}),
			creationsByTier: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_agent_creations_total",
				Help: "Count of arenas created by the host agent, by tier.",
			}, []string{"tier"}),
			creationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_agent_creation_failures_total",
				Help: "Count of failed arena creation attempts by tier.",
			}, []string{"tier"}),
			tierPaused: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clawarena_agent_tier_paused",
				Help: "1 if the tier is currently paused due to consecutive fill failures.",
			}, []string{"tier"}),
			confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clawarena_agent_tier_confidence",
				Help: "Most recently computed confidence score for the tier.",
			}, []string{"tier"}),
		}
		prometheus.MustRegister(
			agentRegistry.cyclesRun,
			agentRegistry.creationsByTier,
			agentRegistry.creationFailures,
			agentRegistry.tierPaused,
			agentRegistry.confidence,
		)
	})
	return agentRegistry
}

func (m *AgentMetrics) ObserveCycle() {
	if m == nil {
		return
	}
	m.cyclesRun.Inc()
}

func (m *AgentMetrics) ObserveCreation(tier string) {
	if m == nil {
		return
	}
	m.creationsByTier.WithLabelValues(tier).Inc()
}

func (m *AgentMetrics) ObserveCreationFailure(tier string) {
	if m == nil {
		return
	}
	m.creationFailures.WithLabelValues(tier).Inc()
}

func (m *AgentMetrics) SetTierPaused(tier string, paused bool) {
	if m == nil {
		return
	}
	v := 0.0
	if paused {
		v = 1.0
	}
	m.tierPaused.WithLabelValues(tier).Set(v)
}

func (m *AgentMetrics) SetConfidence(tier string, confidence float64) {
	if m == nil {
		return
	}
	m.confidence.WithLabelValues(tier).Set(confidence)
}
