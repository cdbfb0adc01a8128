// Package agent implements the Autonomous Host Agent: a cyclic market
// analysis that selects a tier and parameters and issues arena-creation
// commands to the arena state machine.
package agent

import (
	"time"

	"clawarena/config"
)

// PeakHourStart and PeakHourEnd bound the UTC peak window, per spec.
const (
	PeakHourStart = 14
	PeakHourEnd   = 23
)

// ConsecutiveFailPause is how many consecutive failed fills pause a tier.
const ConsecutiveFailPause = 3

// PausedCycles is how many cycles a paused tier is skipped.
const PausedCycles = 2

// TierStats tracks a tier's rolling fill performance across cycles.
type TierStats struct {
	RecentFillRate   float64 // fraction of the last window's arenas that filled, [0,1]
	ConsecutiveFails int
	PausedCycles     int
}

// IsPeak reports whether t falls in the UTC peak window [PeakHourStart, PeakHourEnd).
func IsPeak(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= PeakHourStart && h < PeakHourEnd
}

// IsWeekend reports whether t falls on Saturday or Sunday UTC.
func IsWeekend(t time.Time) bool {
	d := t.UTC().Weekday()
	return d == time.Saturday || d == time.Sunday
}

// smallTierName is the tier whose fill rate gates LARGE and WHALE
// availability (spec.md §4.6/§6: "LARGE when a recent 24h window shows
// >=50% fills in SMALL"), not the gated tier's own fill rate.
const smallTierName = "SMALL"

// eligible reports whether tier is allowed to be chosen given the moment's
// classification and, for LARGE/WHALE, the SMALL tier's recent fill rate,
// per the availability column of the tier policy table (spec.md §6).
func eligible(policy config.TierPolicy, peak, weekend bool, smallStats TierStats) bool {
	switch policy.Availability {
	case "always":
		return true
	case "peak":
		return peak
	case "large":
		return peak && smallStats.RecentFillRate >= 0.5
	case "whale":
		return weekend && peak && smallStats.RecentFillRate >= 0.7
	default:
		return false
	}
}

// confidence computes a scalar in [0,1] from the tier's recent fill rate
// and whether the moment favors it (peak/weekend eligibility margin).
// Supplemented per SPEC_FULL.md §12: used both for the creation decision
// and logged in the creation reason.
func confidence(policy config.TierPolicy, peak, weekend bool, stats TierStats) float64 {
	base := stats.RecentFillRate
	bonus := 0.0
	switch policy.Availability {
	case "always":
		bonus = 0.1
	case "peak":
		if peak {
			bonus = 0.15
		}
	case "large":
		if peak && weekend {
			bonus = 0.05
		}
	case "whale":
		if peak && weekend {
			bonus = 0.1
		}
	}
	c := base + bonus
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// TierChoice is the outcome of a single tier-selection pass.
type TierChoice struct {
	Policy     config.TierPolicy
	Confidence float64
	Peak       bool
	Weekend    bool
}

// SelectTier performs weighted selection among eligible, non-paused tiers,
// biased toward higher confidence. seed drives the deterministic weighted
// draw; stats carries per-tier rolling fill performance.
func SelectTier(now time.Time, policies []config.TierPolicy, stats map[string]*TierStats, seed uint64) (TierChoice, bool) {
	peak := IsPeak(now)
	weekend := IsWeekend(now)

	smallStats := stats[smallTierName]
	if smallStats == nil {
		smallStats = &TierStats{}
	}

	type candidate struct {
		policy     config.TierPolicy
		confidence float64
	}
	var candidates []candidate
	for _, p := range policies {
		st := stats[p.Name]
		if st == nil {
			st = &TierStats{}
		}
		if st.PausedCycles > 0 {
			continue
		}
		if !eligible(p, peak, weekend, *smallStats) {
			continue
		}
		candidates = append(candidates, candidate{policy: p, confidence: confidence(p, peak, weekend, *st)})
	}
	if len(candidates) == 0 {
		return TierChoice{}, false
	}

	total := 0.0
	for _, c := range candidates {
		total += c.confidence + 0.01 // small floor so a zero-confidence tier can still be drawn
	}
	r := newRNG(seed)
	draw := r.float64() * total
	running := 0.0
	for _, c := range candidates {
		running += c.confidence + 0.01
		if draw <= running {
			return TierChoice{Policy: c.policy, Confidence: c.confidence, Peak: peak, Weekend: weekend}, true
		}
	}
	last := candidates[len(candidates)-1]
	return TierChoice{Policy: last.policy, Confidence: last.confidence, Peak: peak, Weekend: weekend}, true
}

// recordCycleOutcome advances pause counters and, on a fill-failure streak,
// pauses the tier for PausedCycles subsequent cycles.
func recordCycleOutcome(stats map[string]*TierStats, tierName string, filled bool) {
	st := stats[tierName]
	if st == nil {
		st = &TierStats{}
		stats[tierName] = st
	}
	if filled {
		st.ConsecutiveFails = 0
		return
	}
	st.ConsecutiveFails++
	if st.ConsecutiveFails >= ConsecutiveFailPause {
		st.PausedCycles = PausedCycles
	}
}

func decrementPauses(stats map[string]*TierStats) {
	for _, st := range stats {
		if st.PausedCycles > 0 {
			st.PausedCycles--
		}
	}
}
