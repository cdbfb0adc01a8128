// Package game implements the shared phase machine and the four mini-game
// variants (claw, prediction, speed, blackjack) described in the
// specification's Game Engine component.
package game

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// Status mirrors the shared phase machine: waiting -> learning -> active -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusLearning Status = "learning"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// MoveKind tags which variant of the Move sum type is populated.
type MoveKind string

const (
	MoveKindClawGrab       MoveKind = "claw_grab"
	MoveKindPredictionGuess MoveKind = "prediction_guess"
	MoveKindSpeedAnswer     MoveKind = "speed_answer"
	MoveKindBlackjackAction MoveKind = "blackjack_action"
)

// Move is a tagged sum type over the four game-specific move payloads.
// Exactly one of the pointer fields matching Kind is populated; downstream
// code switches on Kind rather than re-inspecting which fields are nil.
type Move struct {
	Kind MoveKind

	ClawGrab        *ClawGrabMove
	PredictionGuess *PredictionGuessMove
	SpeedAnswer     *SpeedAnswerMove
	BlackjackAction *BlackjackActionMove
}

// ClawGrabMove is a single (x, y) percent-coordinate grab attempt.
type ClawGrabMove struct {
	X, Y float64
}

// PredictionGuessMove is a single numeric guess.
type PredictionGuessMove struct {
	Guess int64
}

// SpeedAnswerMove is a free-form answer submitted before the round's time
// limit, or the special "too early" reaction-challenge answer.
type SpeedAnswerMove struct {
	Answer     string
	TooEarly   bool
	ResponseMS int64
}

// BlackjackActionKind is hit or stand.
type BlackjackActionKind string

const (
	BlackjackHit   BlackjackActionKind = "hit"
	BlackjackStand BlackjackActionKind = "stand"
)

// BlackjackActionMove is a single hit/stand decision within the current hand.
type BlackjackActionMove struct {
	Action BlackjackActionKind
}

// PlayerState tracks one player's running score and per-game payload across
// rounds.
type PlayerState struct {
	Score    int
	Status   string // "active" | "done"
	Payload  interface{}
	LastMove time.Time
}

// Challenge is the type-specific round prompt/state, produced by
// Variant.InitialChallenge and consumed by ValidateMove/AutoMove/
// RoundResolution. Each variant defines its own concrete Challenge type;
// callers type-assert using the Game's GameType.
type Challenge interface{}

// MoveResult is returned from SubmitMove.
type MoveResult struct {
	ScoreDelta    int
	NewScore      int
	RoundResolved bool
}

// Game is the per-active-arena child aggregate, created when the game-start
// countdown fires, at the start of the learning phase.
type Game struct {
	ID                string
	GameType          arena.GameType
	Status            Status
	RoundNumber       int
	MaxRounds         int
	RoundDeadline     time.Time
	CurrentChallenge  Challenge
	Players           map[common.Address]*PlayerState
	JoinOrder         []common.Address
	Winners           []common.Address
	WinnerCount       int
	ArenaID           string
	CreationInstant   int64 // unix nano, feeds DeriveSeed
	movesThisRound    map[common.Address]bool
}

// DefaultWinnerCount returns the top-N winners convention this repository
// adopts absent an explicit arena.Config.WinnerCount override: 2 winners for
// arenas of 8 players or fewer, 3 winners otherwise. Grounded on the
// original implementation's game_engine.py num_winners rule.
func DefaultWinnerCount(nPlayers int) int {
	if nPlayers <= 8 {
		return 2
	}
	return 3
}

// ErrorCode enumerates the move-submission error taxonomy.
type ErrorCode string

const (
	ErrCodeGameNotActive    ErrorCode = "game_not_active"
	ErrCodeNotParticipant   ErrorCode = "not_participant"
	ErrCodeMoveAlreadySent  ErrorCode = "move_already_submitted"
	ErrCodeInvalidMove      ErrorCode = "invalid_move"
)

// Error is the structured move-submission error.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string { return "game: " + string(e.Code) + ": " + e.Msg }

func newErr(code ErrorCode, msg string) error { return &Error{Code: code, Msg: msg} }
