package arena

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clawarena/events"
)

const (
	// CountdownSeconds is the delay between an arena filling (or idle_reap /
	// deadline short-circuiting a |players|>=2 arena to closed) and the
	// learning phase starting.
	CountdownSeconds = 10
	// IdleReapSeconds bounds how long an arena with fewer than two players
	// waits before it is reaped.
	IdleReapSeconds = 20
	// LearningSeconds is the fixed pre-game interval during which rules are
	// displayed and no moves count.
	LearningSeconds = 60
)

// TimerScheduler is the narrow view of scheduler.Scheduler the arena engine
// depends on. Consumer-defined so tests can substitute a fake without
// pulling in the real timer wheel.
type TimerScheduler interface {
	ScheduleTimer(arenaID, kind string, firesAt time.Time, cb func())
	CancelTimer(arenaID, kind string)
}

// Engine drives arena phase transitions per the state table in the
// specification's Arena State Machine component. It holds no arena state
// itself — callers pass the current Arena snapshot and receive back a
// mutated clone plus the events the transition produced, to be persisted via
// a compare-and-swap write.
type Engine struct {
	scheduler TimerScheduler
	emitter   events.Emitter
	nowFn     func() time.Time
}

// Option customises an Engine instance.
type Option func(*Engine)

// WithScheduler supplies the timer scheduler collaborator.
func WithScheduler(s TimerScheduler) Option { return func(e *Engine) { e.scheduler = s } }

// WithEmitter supplies the event emitter collaborator.
func WithEmitter(em events.Emitter) Option { return func(e *Engine) { e.emitter = em } }

// WithClock overrides the function used to derive "now".
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.nowFn = now } }

// NewEngine constructs an Engine. Without options it has no scheduler (timer
// scheduling calls are no-ops) and discards events; production callers
// always supply WithScheduler and WithEmitter.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{emitter: events.NoopEmitter{}, nowFn: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() time.Time {
	if e.nowFn == nil {
		return time.Now()
	}
	return e.nowFn()
}

func (e *Engine) schedule(arenaID, kind string, firesAt time.Time, cb func()) {
	if e.scheduler == nil {
		return
	}
	e.scheduler.ScheduleTimer(arenaID, kind, firesAt, cb)
}

func (e *Engine) cancel(arenaID, kind string) {
	if e.scheduler == nil {
		return
	}
	e.scheduler.CancelTimer(arenaID, kind)
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// onCountdownFired and onIdleReap etc. are supplied by the caller (the arena
// actor) because firing a timer must re-enter the engine through the arena's
// mailbox rather than mutate state directly from the scheduler goroutine
// (see the concurrency model: "when a timer fires it enqueues an event
// rather than mutating directly").
type FireFunc func()

// Join implements the player_join transition: created --player_join(p)--> created,
// with side effects scheduling either the game-start countdown (arena just
// filled) or the idle-reap timer (first player, nobody else yet).
func (e *Engine) Join(a *Arena, player common.Address, onIdleReap, onCountdown FireFunc) (*Arena, []events.Event, error) {
	now := e.now()
	if a.HasPlayer(player) {
		return nil, nil, validationErr(ErrCodeAlreadyJoined, "player already joined")
	}
	// IsFull is checked ahead of IsClosed: once a join fills the arena it
	// also closes it in the same transition (see the fill case below), so
	// the losing side of a concurrent full-fill race must still see
	// arena_full rather than the more generic arena_closed (spec.md §8
	// scenario 6). Closes for other reasons (idle-reap/deadline
	// short-circuit) leave the arena short of capacity, so they still fall
	// through to the arena_closed branch.
	if a.IsFull() {
		return nil, nil, validationErr(ErrCodeArenaFull, "arena full")
	}
	if a.IsClosed {
		return nil, nil, validationErr(ErrCodeArenaClosed, "arena is closed")
	}
	if a.Config.RegistrationDeadline != nil && now.After(*a.Config.RegistrationDeadline) {
		return nil, nil, validationErr(ErrCodeDeadlinePassed, "registration deadline passed")
	}

	next := a.Clone()
	next.Players = append(next.Players, player)

	var evts []events.Event
	evts = append(evts, NewPlayerJoinedEvent(next, player))

	switch {
	case uint32(len(next.Players)) == next.Config.MaxPlayers:
		next.IsClosed = true
		next.ClosedAt = now
		e.cancel(next.Address.Hex(), "idle_reap")
		firesAt := now.Add(CountdownSeconds * time.Second)
		e.schedule(next.Address.Hex(), "game_start_countdown", firesAt, onCountdown)
		evts = append(evts, NewClosedEvent(next))
	case len(next.Players) == 1:
		firesAt := now.Add(IdleReapSeconds * time.Second)
		e.schedule(next.Address.Hex(), "idle_reap", firesAt, onIdleReap)
	}

	return next, evts, nil
}

// HandleIdleReapOrDeadline implements the idle_reap / registration_deadline
// transitions out of created: zero or one player cancels (with a refund
// intent for the sole player), two or more short-circuits straight to
// closed and schedules the countdown with zero delay.
func (e *Engine) HandleIdleReapOrDeadline(a *Arena, onCountdown FireFunc) (*Arena, []events.Event, error) {
	if a.IsClosed {
		// Already closed by a concurrent transition; nothing to do.
		return a, nil, nil
	}
	now := e.now()
	next := a.Clone()

	switch len(next.Players) {
	case 0:
		next.GameStatus = GameStatusCancelled
		next.IsClosed = true
		next.ClosedAt = now
		return next, []events.Event{NewCancelledEvent(next, "no_players")}, nil
	case 1:
		next.GameStatus = GameStatusCancelled
		next.IsClosed = true
		next.ClosedAt = now
		sole := next.Players[0]
		return next, []events.Event{
			NewCancelledEvent(next, "insufficient_players"),
			NewRefundIntentEvent(next, sole),
		}, nil
	default:
		next.IsClosed = true
		next.ClosedAt = now
		e.cancel(next.Address.Hex(), "idle_reap")
		e.schedule(next.Address.Hex(), "game_start_countdown", now, onCountdown)
		return next, []events.Event{NewClosedEvent(next)}, nil
	}
}

// HandleCountdownFired implements closed --game_start_countdown--> learning:
// creates the game (the caller supplies the opaque gameID, already produced
// by the game engine) and schedules the learning-phase end.
func (e *Engine) HandleCountdownFired(a *Arena, gameID string, onLearningEnd FireFunc) (*Arena, []events.Event, error) {
	if !a.IsClosed {
		return nil, nil, invariantErr("countdown fired for arena %s that is not closed", a.Address.Hex())
	}
	if a.GameStatus != GameStatusNone && a.GameStatus != GameStatusWaiting {
		return a, nil, nil // already advanced past this transition
	}
	now := e.now()
	next := a.Clone()
	next.GameStatus = GameStatusLearning
	next.LearningStartedAt = now
	next.Result.GameID = gameID
	e.schedule(next.Address.Hex(), "learning_end", now.Add(LearningSeconds*time.Second), onLearningEnd)
	return next, []events.Event{NewLearningStartedEvent(next, gameID)}, nil
}

// HandleLearningEnd implements learning --learning_end--> active.
func (e *Engine) HandleLearningEnd(a *Arena) (*Arena, []events.Event, error) {
	if a.GameStatus != GameStatusLearning {
		return a, nil, nil
	}
	next := a.Clone()
	next.GameStatus = GameStatusActive
	next.ActiveStartedAt = e.now()
	return next, []events.Event{NewGameActiveEvent(next)}, nil
}

// HandleGameFinished implements the active --round N = max_rounds--> finished
// transition. The caller (game engine) supplies the final ranking; this
// method only flips the state-machine flag and timestamp — payout and
// signing happen in later steps driven by ProcessWinners.
func (e *Engine) HandleGameFinished(a *Arena) (*Arena, []events.Event, error) {
	if a.GameStatus != GameStatusActive {
		return nil, nil, validationErr(ErrCodeWrongPhase, "game is not active")
	}
	next := a.Clone()
	next.GameStatus = GameStatusFinished
	next.FinishedAt = e.now()
	return next, []events.Event{NewFinishedEvent(next)}, nil
}

// ProcessWinners implements finished --process_winners--> finished(finalized):
// it records the winners/payouts computed by the payout module and the
// signature produced by the finalize signer, and sets IsFinalized. It does
// not itself compute payouts or call the signer — those are separate
// components composed by the orchestrator; this method only enforces the
// state-machine guard (not yet finalized, game finished and closed) and
// performs the bookkeeping write.
func (e *Engine) ProcessWinners(a *Arena, winners []common.Address, payouts []*uint256.Int, nonce uint64, signature []byte) (*Arena, []events.Event, error) {
	if a.IsFinalized {
		return nil, nil, validationErr(ErrCodeAlreadyFinalized, "arena already finalized")
	}
	if !a.IsClosed || a.GameStatus != GameStatusFinished {
		return nil, nil, validationErr(ErrCodeWrongPhase, "arena is not closed and finished")
	}
	if len(winners) == 0 || len(winners) != len(payouts) {
		return nil, nil, invariantErr("winners/payouts length mismatch: %d vs %d", len(winners), len(payouts))
	}
	for _, w := range winners {
		if !a.HasPlayer(w) {
			return nil, nil, invariantErr("winner %s is not a player of arena %s", w.Hex(), a.Address.Hex())
		}
	}

	next := a.Clone()
	next.Result.Winners = append([]common.Address{}, winners...)
	next.Result.Payouts = payouts
	next.IsFinalized = true
	next.FinalizedAt = e.now()
	next.UsedNonce = nonce
	next.FinalizeSignature = signature
	return next, []events.Event{NewFinalizedEvent(next, nonce)}, nil
}
