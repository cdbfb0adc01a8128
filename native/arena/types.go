// Package arena implements the per-arena state machine: phase transitions,
// guards, and invariants over the Arena aggregate described in the
// specification's data model.
package arena

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GameType enumerates the four mini-game protocols an arena can host.
type GameType string

const (
	GameTypeClaw       GameType = "claw"
	GameTypePrediction GameType = "prediction"
	GameTypeSpeed      GameType = "speed"
	GameTypeBlackjack  GameType = "blackjack"
)

// Network identifies which chain an arena's escrow lives on.
type Network string

const (
	NetworkTestnet Network = "testnet"
	NetworkMainnet Network = "mainnet"
)

// CreatedBy records whether an arena was spawned by an operator or the
// autonomous host agent.
type CreatedBy string

const (
	CreatedByAdmin CreatedBy = "admin"
	CreatedByAgent CreatedBy = "agent"
)

// GameStatus is the arena's game-phase flag, one axis of the tuple that
// determines overall state alongside IsClosed and IsFinalized.
type GameStatus string

const (
	GameStatusNone      GameStatus = "none"
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusLearning  GameStatus = "learning"
	GameStatusActive    GameStatus = "active"
	GameStatusFinished  GameStatus = "finished"
	GameStatusCancelled GameStatus = "cancelled"
)

// Config holds the arena's immutable-after-creation configuration.
type Config struct {
	Name                 string
	EntryFee             *uint256.Int
	MaxPlayers           uint32
	ProtocolFeeBps       uint16
	TreasuryAddress      common.Address
	RegistrationDeadline *time.Time // nil means "none"
	GameType             GameType
	Network              Network
	CreatedBy            CreatedBy
	CreationReason       string

	// WinnerCount overrides the default top-2/top-3 winner-count convention
	// (native/game.DefaultWinnerCount) when non-zero.
	WinnerCount uint32
}

// Result holds the arena's terminal outcome once the game engine has
// produced a final ranking.
type Result struct {
	GameID  string
	Winners []common.Address
	Payouts []*uint256.Int
}

// Arena is the root aggregate: one tournament instance, its participants,
// its phase, and (once reached) its result.
type Arena struct {
	Address common.Address
	Config  Config

	Players []common.Address // first-join order preserved

	IsClosed    bool
	IsFinalized bool
	GameStatus  GameStatus

	CreatedAt         time.Time
	ClosedAt          time.Time
	LearningStartedAt time.Time
	ActiveStartedAt   time.Time
	FinishedAt        time.Time
	FinalizedAt       time.Time

	Result Result

	UsedNonce         uint64
	FinalizeSignature []byte

	// Version is the optimistic-concurrency counter used by the CAS
	// persistence contract (state/arena.Store.UpdateArena).
	Version uint64
}

// Clone returns a deep-enough copy of the arena for safe mutation by a
// command handler before the result is compared-and-swapped back into the
// store. Player and payout slices are copied; Config.RegistrationDeadline
// points at a fresh time.Time when present.
func (a *Arena) Clone() *Arena {
	clone := *a
	clone.Players = append([]common.Address{}, a.Players...)
	clone.Result.Winners = append([]common.Address{}, a.Result.Winners...)
	clone.Result.Payouts = make([]*uint256.Int, len(a.Result.Payouts))
	for i, p := range a.Result.Payouts {
		if p != nil {
			clone.Result.Payouts[i] = new(uint256.Int).Set(p)
		}
	}
	if a.Config.EntryFee != nil {
		clone.Config.EntryFee = new(uint256.Int).Set(a.Config.EntryFee)
	}
	if a.Config.RegistrationDeadline != nil {
		d := *a.Config.RegistrationDeadline
		clone.Config.RegistrationDeadline = &d
	}
	return &clone
}

// HasPlayer reports whether addr has already joined.
func (a *Arena) HasPlayer(addr common.Address) bool {
	for _, p := range a.Players {
		if p == addr {
			return true
		}
	}
	return false
}

// IsFull reports whether the arena has reached its configured player cap.
func (a *Arena) IsFull() bool {
	return uint32(len(a.Players)) >= a.Config.MaxPlayers
}

// Pool returns entry_fee * |players|, the gross prize pool.
func (a *Arena) Pool() *uint256.Int {
	n := uint256.NewInt(uint64(len(a.Players)))
	return new(uint256.Int).Mul(a.Config.EntryFee, n)
}

// NewArena builds a freshly created arena (GameStatusNone, no players) at
// address, ready for its first player_join. Callers that create arenas
// (the host agent daemon, tests) use this rather than
// building the struct literal directly so CreatedAt is always populated.
func NewArena(address common.Address, cfg Config, now time.Time) *Arena {
	return &Arena{
		Address:    address,
		Config:     cfg,
		GameStatus: GameStatusNone,
		CreatedAt:  now,
	}
}
