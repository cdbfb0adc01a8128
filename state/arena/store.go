package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clawarena/native/arena"
)

// ErrNotFound is returned by LoadArena when no document exists for the
// requested address.
var ErrNotFound = errors.New("state/arena: not found")

// ErrConflict is returned by UpdateArena when expectedVersion no longer
// matches the stored document's version.
var ErrConflict = errors.New("state/arena: conflict")

// Mutator applies a command to a cloned arena; it may return a validation
// error, which aborts the update without writing anything.
type Mutator func(*arena.Arena) error

// Store is the persistence contract named in the specification's External
// Interfaces section: CAS-style arena updates plus payout/leaderboard
// write-through.
type Store interface {
	LoadArena(ctx context.Context, address common.Address) (*arena.Arena, error)
	UpdateArena(ctx context.Context, address common.Address, expectedVersion uint64, mutate Mutator) (uint64, error)
	AppendPayoutRecord(ctx context.Context, arenaAddr, winner common.Address, amount *uint256.Int) error
	UpdateLeaderboard(ctx context.Context, winner common.Address, deltaWins int64, deltaPayouts *uint256.Int, deltaGames int64) error
	// ActiveArenaCount counts arenas that are neither closed nor
	// finalized, the figure the autonomous host agent gates its creation
	// decisions on (spec.md §4.6's min_active/max_active bounds).
	ActiveArenaCount(ctx context.Context) (int, error)
	// ListArenas returns every stored arena, for operator tooling.
	ListArenas(ctx context.Context) ([]*arena.Arena, error)
	// GetLeaderboardEntry returns winner's cumulative standing, or the
	// zero value if winner has no recorded history.
	GetLeaderboardEntry(ctx context.Context, winner common.Address) (LeaderboardEntry, error)
}

// PayoutRecord is one entry in an arena's append-only payout ledger.
type PayoutRecord struct {
	Arena      common.Address `json:"arena"`
	Winner     common.Address `json:"winner"`
	Amount     string         `json:"amount"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// LeaderboardEntry is the cumulative per-player standing the agent and any
// external read surface can query.
type LeaderboardEntry struct {
	Wins    int64  `json:"wins"`
	Payouts string `json:"payouts"`
	Games   int64  `json:"games"`
}

// store is the Database-backed Store implementation shared by MemDB and
// LevelDB. A single mutex serializes CAS updates across arenas, consistent
// with spec.md §5's "concurrent writers to the same arena are forbidden"
// single-leader assumption; contention is only ever within one arena's own
// actor in practice.
type store struct {
	db Database
	mu sync.Mutex
}

// NewStore wraps db (MemDB or LevelDB) in the Store contract.
func NewStore(db Database) Store {
	return &store{db: db}
}

func arenaKey(address common.Address) []byte {
	return []byte("arena/" + address.Hex())
}

func leaderboardKey(addr common.Address) []byte {
	return []byte("leaderboard/" + addr.Hex())
}

func payoutsKey(arenaAddr common.Address) []byte {
	return []byte("payouts/" + arenaAddr.Hex())
}

// arenaRecord mirrors arena.Arena for JSON encoding, using decimal strings
// for uint256 fields instead of relying on the library's own codec so the
// on-disk format is stable and human-readable.
type arenaRecord struct {
	Address common.Address `json:"address"`

	Name                 string         `json:"name"`
	EntryFee             string         `json:"entry_fee"`
	MaxPlayers           uint32         `json:"max_players"`
	ProtocolFeeBps       uint16         `json:"protocol_fee_bps"`
	TreasuryAddress      common.Address `json:"treasury_address"`
	RegistrationDeadline *time.Time     `json:"registration_deadline,omitempty"`
	GameType             string         `json:"game_type"`
	Network              string         `json:"network"`
	CreatedBy            string         `json:"created_by"`
	CreationReason       string         `json:"creation_reason"`
	WinnerCount          uint32         `json:"winner_count,omitempty"`

	Players []common.Address `json:"players"`

	IsClosed    bool   `json:"is_closed"`
	IsFinalized bool   `json:"is_finalized"`
	GameStatus  string `json:"game_status"`

	CreatedAt         time.Time `json:"created_at"`
	ClosedAt          time.Time `json:"closed_at"`
	LearningStartedAt time.Time `json:"learning_started_at"`
	ActiveStartedAt   time.Time `json:"active_started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	FinalizedAt       time.Time `json:"finalized_at"`

	GameID  string           `json:"game_id"`
	Winners []common.Address `json:"winners"`
	Payouts []string         `json:"payouts"`

	UsedNonce         uint64 `json:"used_nonce"`
	FinalizeSignature []byte `json:"finalize_signature,omitempty"`

	Version uint64 `json:"version"`
}

func toRecord(a *arena.Arena) *arenaRecord {
	payouts := make([]string, len(a.Result.Payouts))
	for i, p := range a.Result.Payouts {
		if p != nil {
			payouts[i] = p.Dec()
		}
	}
	entryFee := "0"
	if a.Config.EntryFee != nil {
		entryFee = a.Config.EntryFee.Dec()
	}
	return &arenaRecord{
		Address:              a.Address,
		Name:                 a.Config.Name,
		EntryFee:             entryFee,
		MaxPlayers:           a.Config.MaxPlayers,
		ProtocolFeeBps:       a.Config.ProtocolFeeBps,
		TreasuryAddress:      a.Config.TreasuryAddress,
		RegistrationDeadline: a.Config.RegistrationDeadline,
		GameType:             string(a.Config.GameType),
		Network:              string(a.Config.Network),
		CreatedBy:            string(a.Config.CreatedBy),
		CreationReason:       a.Config.CreationReason,
		WinnerCount:          a.Config.WinnerCount,
		Players:              a.Players,
		IsClosed:             a.IsClosed,
		IsFinalized:          a.IsFinalized,
		GameStatus:           string(a.GameStatus),
		CreatedAt:            a.CreatedAt,
		ClosedAt:             a.ClosedAt,
		LearningStartedAt:    a.LearningStartedAt,
		ActiveStartedAt:      a.ActiveStartedAt,
		FinishedAt:           a.FinishedAt,
		FinalizedAt:          a.FinalizedAt,
		GameID:               a.Result.GameID,
		Winners:              a.Result.Winners,
		Payouts:              payouts,
		UsedNonce:            a.UsedNonce,
		FinalizeSignature:    a.FinalizeSignature,
		Version:              a.Version,
	}
}

func fromRecord(r *arenaRecord) (*arena.Arena, error) {
	entryFee, err := parseDec(r.EntryFee)
	if err != nil {
		return nil, fmt.Errorf("state/arena: entry_fee: %w", err)
	}
	payouts := make([]*uint256.Int, len(r.Payouts))
	for i, p := range r.Payouts {
		v, err := parseDec(p)
		if err != nil {
			return nil, fmt.Errorf("state/arena: payouts[%d]: %w", i, err)
		}
		payouts[i] = v
	}
	return &arena.Arena{
		Address: r.Address,
		Config: arena.Config{
			Name:                 r.Name,
			EntryFee:             entryFee,
			MaxPlayers:           r.MaxPlayers,
			ProtocolFeeBps:       r.ProtocolFeeBps,
			TreasuryAddress:      r.TreasuryAddress,
			RegistrationDeadline: r.RegistrationDeadline,
			GameType:             arena.GameType(r.GameType),
			Network:              arena.Network(r.Network),
			CreatedBy:            arena.CreatedBy(r.CreatedBy),
			CreationReason:       r.CreationReason,
			WinnerCount:          r.WinnerCount,
		},
		Players:           r.Players,
		IsClosed:          r.IsClosed,
		IsFinalized:       r.IsFinalized,
		GameStatus:        arena.GameStatus(r.GameStatus),
		CreatedAt:         r.CreatedAt,
		ClosedAt:          r.ClosedAt,
		LearningStartedAt: r.LearningStartedAt,
		ActiveStartedAt:   r.ActiveStartedAt,
		FinishedAt:        r.FinishedAt,
		FinalizedAt:       r.FinalizedAt,
		Result: arena.Result{
			GameID:  r.GameID,
			Winners: r.Winners,
			Payouts: payouts,
		},
		UsedNonce:         r.UsedNonce,
		FinalizeSignature: r.FinalizeSignature,
		Version:           r.Version,
	}, nil
}

func parseDec(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *store) LoadArena(ctx context.Context, address common.Address) (*arena.Arena, error) {
	raw, err := s.db.Get(arenaKey(address))
	if err != nil {
		return nil, ErrNotFound
	}
	var rec arenaRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("state/arena: decode: %w", err)
	}
	return fromRecord(&rec)
}

// UpdateArena applies mutate to a clone of the currently stored arena (or a
// zero-version placeholder on first write) and persists the result only if
// expectedVersion still matches what is stored, incrementing the version on
// success. This is the CAS contract spec.md §6 and §9 call for.
func (s *store) UpdateArena(ctx context.Context, address common.Address, expectedVersion uint64, mutate Mutator) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.LoadArena(ctx, address)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
		current = &arena.Arena{Address: address}
	}
	if current.Version != expectedVersion {
		return 0, ErrConflict
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return 0, err
	}
	next.Version = expectedVersion + 1

	raw, err := json.Marshal(toRecord(next))
	if err != nil {
		return 0, fmt.Errorf("state/arena: encode: %w", err)
	}
	if err := s.db.Put(arenaKey(address), raw); err != nil {
		return 0, fmt.Errorf("state/arena: put: %w", err)
	}
	return next.Version, nil
}

func (s *store) AppendPayoutRecord(ctx context.Context, arenaAddr, winner common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := payoutsKey(arenaAddr)
	var records []PayoutRecord
	if raw, err := s.db.Get(key); err == nil {
		if err := json.Unmarshal(raw, &records); err != nil {
			return fmt.Errorf("state/arena: decode payout records: %w", err)
		}
	}
	amt := "0"
	if amount != nil {
		amt = amount.Dec()
	}
	records = append(records, PayoutRecord{Arena: arenaAddr, Winner: winner, Amount: amt, RecordedAt: time.Now()})

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("state/arena: encode payout records: %w", err)
	}
	return s.db.Put(key, raw)
}

func (s *store) UpdateLeaderboard(ctx context.Context, winner common.Address, deltaWins int64, deltaPayouts *uint256.Int, deltaGames int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := leaderboardKey(winner)
	var entry LeaderboardEntry
	if raw, err := s.db.Get(key); err == nil {
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("state/arena: decode leaderboard entry: %w", err)
		}
	} else {
		entry.Payouts = "0"
	}

	current, err := parseDec(entry.Payouts)
	if err != nil {
		return fmt.Errorf("state/arena: leaderboard payouts: %w", err)
	}
	if deltaPayouts != nil {
		current = new(uint256.Int).Add(current, deltaPayouts)
	}
	entry.Wins += deltaWins
	entry.Games += deltaGames
	entry.Payouts = current.Dec()

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("state/arena: encode leaderboard entry: %w", err)
	}
	return s.db.Put(key, raw)
}

func (s *store) ActiveArenaCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	err := s.db.Iterate([]byte("arena/"), func(_, value []byte) error {
		var rec arenaRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("state/arena: decode: %w", err)
		}
		if !rec.IsClosed && !rec.IsFinalized {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *store) GetLeaderboardEntry(ctx context.Context, winner common.Address) (LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry LeaderboardEntry
	raw, err := s.db.Get(leaderboardKey(winner))
	if err != nil {
		entry.Payouts = "0"
		return entry, nil
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return LeaderboardEntry{}, fmt.Errorf("state/arena: decode leaderboard entry: %w", err)
	}
	return entry, nil
}

func (s *store) ListArenas(ctx context.Context) ([]*arena.Arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*arena.Arena
	err := s.db.Iterate([]byte("arena/"), func(_, value []byte) error {
		var rec arenaRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("state/arena: decode: %w", err)
		}
		a, err := fromRecord(&rec)
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
