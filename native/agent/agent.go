package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/holiman/uint256"

	"clawarena/config"
	"clawarena/native/arena"
	"clawarena/observability/metrics"
)

// MinActive and MaxActive bound the target depth of open arenas (spec.md §4.6).
const (
	MinActive = 2
	MaxActive = 5
)

// CreationConfidenceThreshold gates the third creation-decision branch.
const CreationConfidenceThreshold = 0.7

// CreationRetryAttempts and CreationRetrySpacing implement the agent's
// safety-rail retry policy.
const (
	CreationRetryAttempts = 3
	CreationRetrySpacing  = 60 * time.Second
)

var gameTypes = []arena.GameType{
	arena.GameTypeClaw, arena.GameTypePrediction, arena.GameTypeSpeed, arena.GameTypeBlackjack,
}

// CreationParams is the command payload the agent hands to the arena state
// machine on a create decision.
type CreationParams struct {
	Name           string
	EntryFee       *uint256.Int
	MaxPlayers     uint32
	GameType       arena.GameType
	ProtocolFeeBps uint16
	CreatedBy      arena.CreatedBy
	CreationReason string
}

// ActiveCounter reports the number of currently open (non-terminal) arenas.
type ActiveCounter interface {
	ActiveCount() int
}

// CreateFunc issues the creation command; implementations talk to the arena
// state machine or its command queue.
type CreateFunc func(ctx context.Context, params CreationParams) error

// Option configures an Agent at construction, mirroring the functional-
// options idiom used across this repository's constructors.
type Option func(*Agent)

// WithClock overrides the agent's time source, for deterministic tests.
func WithClock(nowFn func() time.Time) Option {
	return func(a *Agent) { a.nowFn = nowFn }
}

// WithLogger overrides the structured logger used for creation decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithSleep overrides the retry backoff sleep function, for deterministic tests.
func WithSleep(sleepFn func(time.Duration)) Option {
	return func(a *Agent) { a.sleepFn = sleepFn }
}

// Agent is the autonomous host agent: each Cycle call performs one pass of
// demand analysis, tier selection, and (possibly) a creation command.
type Agent struct {
	policies []config.TierPolicy
	stats    map[string]*TierStats
	counter  ActiveCounter
	create   CreateFunc

	nowFn   func() time.Time
	sleepFn func(time.Duration)
	logger  *slog.Logger

	cycleCount uint64
	nextETA    time.Time
}

// New constructs an Agent over the given tier policies and collaborators.
func New(policies []config.TierPolicy, counter ActiveCounter, create CreateFunc, opts ...Option) *Agent {
	a := &Agent{
		policies: policies,
		stats:    make(map[string]*TierStats),
		counter:  counter,
		create:   create,
		nowFn:    time.Now,
		sleepFn:  time.Sleep,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// seedFor derives this cycle's deterministic seed from the cycle counter and
// wall-clock bucket, keeping tier/name/game-type sampling reproducible
// within a cycle while varying across cycles.
func (a *Agent) seedFor(now time.Time) uint64 {
	a.cycleCount++
	return a.cycleCount*0x9E3779B97F4A7C15 ^ uint64(now.Unix())
}

// Cycle performs one pass of the agent loop: classify the moment, select a
// tier, decide whether to create, and if so issue the creation command with
// retry-with-backoff.
func (a *Agent) Cycle(ctx context.Context) error {
	now := a.nowFn()
	metrics.Agent().ObserveCycle()

	choice, ok := SelectTier(now, a.policies, a.stats, a.seedFor(now))
	decrementPauses(a.stats)
	if !ok {
		a.logger.Info("host agent cycle: no eligible tier", "time", now)
		return nil
	}

	active := a.counter.ActiveCount()
	create := a.decide(active, choice)
	st := a.stats[choice.Policy.Name]
	fillRate := 0.0
	if st != nil {
		fillRate = st.RecentFillRate
	}
	reason := CreationReason(choice, fillRate)

	if !create {
		a.logger.Info("host agent cycle: waiting", "tier", choice.Policy.Name, "active", active, "reason", reason)
		return nil
	}

	params := a.buildParams(choice, reason)
	a.logger.Info("host agent cycle: creating arena", "tier", choice.Policy.Name, "name", params.Name, "reason", reason)
	metrics.Agent().SetConfidence(choice.Policy.Name, choice.Confidence)

	var lastErr error
	for attempt := 1; attempt <= CreationRetryAttempts; attempt++ {
		if err := a.create(ctx, params); err != nil {
			lastErr = err
			metrics.Agent().ObserveCreationFailure(choice.Policy.Name)
			recordCycleOutcome(a.stats, choice.Policy.Name, false)
			metrics.Agent().SetTierPaused(choice.Policy.Name, a.paused(choice.Policy.Name))
			if attempt < CreationRetryAttempts {
				a.sleepFn(CreationRetrySpacing)
			}
			continue
		}
		metrics.Agent().ObserveCreation(choice.Policy.Name)
		recordCycleOutcome(a.stats, choice.Policy.Name, true)
		return nil
	}
	a.logger.Error("host agent cycle: creation failed after retries", "tier", choice.Policy.Name, "error", lastErr)
	return fmt.Errorf("agent: creation failed after %d attempts: %w", CreationRetryAttempts, lastErr)
}

func (a *Agent) decide(active int, choice TierChoice) bool {
	switch {
	case active < MinActive:
		return true
	case choice.Peak && active < MaxActive-1:
		return true
	case choice.Confidence >= CreationConfidenceThreshold && active < MaxActive:
		return true
	default:
		return false
	}
}

func (a *Agent) buildParams(choice TierChoice, reason string) CreationParams {
	seed := a.seedFor(time.Time{}) // advances cycleCount again: a second seed, separate from the tier draw
	r := newRNG(seed)

	entryFee := sampleEntryFee(choice.Policy, r)
	maxPlayers := choice.Policy.PlayerCounts[r.intn(len(choice.Policy.PlayerCounts))]
	gameType := gameTypes[r.intn(len(gameTypes))]
	name := FlairName(seed)

	return CreationParams{
		Name:           name,
		EntryFee:       entryFee,
		MaxPlayers:     maxPlayers,
		GameType:       gameType,
		ProtocolFeeBps: choice.Policy.ProtocolFeeBps,
		CreatedBy:      arena.CreatedByAgent,
		CreationReason: reason,
	}
}

func (a *Agent) paused(tierName string) bool {
	st := a.stats[tierName]
	return st != nil && st.PausedCycles > 0
}

// sampleEntryFee draws a uniform value from [lo, hi) by scaling the span by
// a random parts-per-million fraction; entry-fee ranges are always small
// multiples of 10^15-10^19 so this stays well clear of uint256 overflow.
func sampleEntryFee(policy config.TierPolicy, r *rng) *uint256.Int {
	lo, hi := policy.MinEntryFee, policy.MaxEntryFee
	span := new(uint256.Int).Sub(hi, lo)
	if span.IsZero() {
		return new(uint256.Int).Set(lo)
	}
	frac := uint256.NewInt(uint64(r.intn(1_000_000)))
	scaled := new(uint256.Int).Mul(span, frac)
	scaled.Div(scaled, uint256.NewInt(1_000_000))
	return new(uint256.Int).Add(lo, scaled)
}

// NextTournamentETA returns the estimated start time of the next
// agent-created tournament, for read-only display by external collaborators.
func (a *Agent) NextTournamentETA() time.Time { return a.nextETA }

// RecordFinalize updates the next-tournament ETA on every arena finalize,
// per spec.md §4.6's countdown rule.
func (a *Agent) RecordFinalize(now time.Time) {
	seed := a.seedFor(now)
	r := newRNG(seed)
	if IsPeak(now) {
		a.nextETA = now.Add(time.Duration(5+r.intn(11)) * time.Minute) // U[5,15]
	} else {
		a.nextETA = now.Add(time.Duration(15+r.intn(16)) * time.Minute) // U[15,30]
	}
}

// RecordFillOutcome feeds a completed arena's fill outcome back into the
// tier's rolling stats, consumed by the next cycle's eligibility/confidence
// computation and safety-rail pause tracking.
func (a *Agent) RecordFillOutcome(tierName string, filled bool, newFillRate float64) {
	st := a.stats[tierName]
	if st == nil {
		st = &TierStats{}
		a.stats[tierName] = st
	}
	st.RecentFillRate = newFillRate
	recordCycleOutcome(a.stats, tierName, filled)
}
