package game

import (
	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// Variant is the per-game-type contract every mini-game implements.
type Variant interface {
	GameType() arena.GameType
	MaxRounds() int
	// InitialChallenge produces the round's prompt/state. seed is derived
	// via DeriveSeed from (arena id, creation instant, round number).
	InitialChallenge(roundNumber int, joinOrder []common.Address, seed uint64) Challenge
	// ValidateMove checks the move against the current challenge and
	// returns the score delta to apply, or a structured error.
	ValidateMove(player common.Address, move Move, challenge Challenge) (int, error)
	// AutoMove produces a deterministic fallback move for an absent player.
	AutoMove(player common.Address, challenge Challenge, seed uint64) Move
	// RoundResolution is invoked once all active players have a recorded
	// move (submitted or auto). It may mutate per-player state beyond the
	// simple score delta (e.g. blackjack hand totals) and reports whether
	// the game as a whole should terminate early.
	RoundResolution(g *Game) (terminate bool)
	// FinalRanking orders players by final rank, applying the variant's
	// documented tie-break.
	FinalRanking(players map[common.Address]*PlayerState, joinOrder []common.Address) []common.Address
}
