package arena

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"clawarena/events"
)

type fakeScheduler struct {
	scheduled map[string]time.Time
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]time.Time)}
}

func (f *fakeScheduler) ScheduleTimer(arenaID, kind string, firesAt time.Time, cb func()) {
	f.scheduled[arenaID+"/"+kind] = firesAt
}

func (f *fakeScheduler) CancelTimer(arenaID, kind string) {
	f.cancelled = append(f.cancelled, arenaID+"/"+kind)
	delete(f.scheduled, arenaID+"/"+kind)
}

func newTestArena(maxPlayers uint32) *Arena {
	return &Arena{
		Address: common.HexToAddress("0xA1"),
		Config: Config{
			EntryFee:       uint256.NewInt(1_000_000_000_000_000),
			MaxPlayers:     maxPlayers,
			ProtocolFeeBps: 250,
			GameType:       GameTypePrediction,
		},
		GameStatus: GameStatusNone,
	}
}

func TestJoinSchedulesIdleReapForFirstPlayer(t *testing.T) {
	sched := newFakeScheduler()
	rec := &events.Recorder{}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(WithScheduler(sched), WithEmitter(rec), WithClock(func() time.Time { return start }))

	a := newTestArena(4)
	next, evts, err := e.Join(a, common.HexToAddress("0xB1"), func() {}, func() {})
	require.NoError(t, err)
	require.Len(t, next.Players, 1)
	require.Len(t, evts, 1)
	require.Equal(t, EventTypePlayerJoined, evts[0].Type)
	require.Contains(t, sched.scheduled, next.Address.Hex()+"/idle_reap")
}

func TestJoinFillingArenaSchedulesCountdownAndCancelsIdleReap(t *testing.T) {
	sched := newFakeScheduler()
	e := NewEngine(WithScheduler(sched), WithEmitter(&events.Recorder{}), WithClock(time.Now))

	a := newTestArena(2)
	a, _, err := e.Join(a, common.HexToAddress("0xB1"), func() {}, func() {})
	require.NoError(t, err)
	a, evts, err := e.Join(a, common.HexToAddress("0xB2"), func() {}, func() {})
	require.NoError(t, err)
	require.Contains(t, sched.scheduled, a.Address.Hex()+"/game_start_countdown")
	require.Contains(t, sched.cancelled, a.Address.Hex()+"/idle_reap")
	require.True(t, a.IsClosed, "arena should close the moment it fills")
	require.False(t, a.ClosedAt.IsZero())
	require.Len(t, evts, 2)
	require.Equal(t, EventTypePlayerJoined, evts[0].Type)
	require.Equal(t, EventTypeClosed, evts[1].Type)
}

func TestJoinRejectsDuplicatePlayer(t *testing.T) {
	e := NewEngine()
	a := newTestArena(4)
	player := common.HexToAddress("0xB1")
	a, _, err := e.Join(a, player, func() {}, func() {})
	require.NoError(t, err)
	_, _, err = e.Join(a, player, func() {}, func() {})
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Equal(t, ErrCodeAlreadyJoined, ve.Code)
}

func TestJoinRejectsWhenFull(t *testing.T) {
	e := NewEngine()
	a := newTestArena(1)
	a, _, err := e.Join(a, common.HexToAddress("0xB1"), func() {}, func() {})
	require.NoError(t, err)
	require.True(t, a.IsFull())
	_, _, err = e.Join(a, common.HexToAddress("0xB2"), func() {}, func() {})
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.Equal(t, ErrCodeArenaFull, ve.Code)
}

func TestIdleReapZeroPlayersCancels(t *testing.T) {
	e := NewEngine(WithEmitter(&events.Recorder{}))
	a := newTestArena(4)
	next, evts, err := e.HandleIdleReapOrDeadline(a, func() {})
	require.NoError(t, err)
	require.Equal(t, GameStatusCancelled, next.GameStatus)
	require.True(t, next.IsClosed)
	require.Len(t, evts, 1)
}

func TestIdleReapOnePlayerCancelsWithRefund(t *testing.T) {
	e := NewEngine()
	a := newTestArena(4)
	a, _, _ = e.Join(a, common.HexToAddress("0xB1"), func() {}, func() {})
	next, evts, err := e.HandleIdleReapOrDeadline(a, func() {})
	require.NoError(t, err)
	require.Equal(t, GameStatusCancelled, next.GameStatus)
	require.Len(t, evts, 2)
	require.Equal(t, EventTypeRefundIntent, evts[1].Type)
}

func TestIdleReapTwoPlayersShortCircuitsToClosed(t *testing.T) {
	sched := newFakeScheduler()
	e := NewEngine(WithScheduler(sched))
	a := newTestArena(4)
	a, _, _ = e.Join(a, common.HexToAddress("0xB1"), func() {}, func() {})
	a, _, _ = e.Join(a, common.HexToAddress("0xB2"), func() {}, func() {})
	next, evts, err := e.HandleIdleReapOrDeadline(a, func() {})
	require.NoError(t, err)
	require.True(t, next.IsClosed)
	require.Equal(t, GameStatusNone, next.GameStatus)
	require.Len(t, evts, 1)
	require.Contains(t, sched.scheduled, next.Address.Hex()+"/game_start_countdown")
}

func TestFullLifecycleToFinalized(t *testing.T) {
	sched := newFakeScheduler()
	e := NewEngine(WithScheduler(sched), WithEmitter(&events.Recorder{}))
	a := newTestArena(2)
	p1, p2 := common.HexToAddress("0xB1"), common.HexToAddress("0xB2")
	a, _, err := e.Join(a, p1, func() {}, func() {})
	require.NoError(t, err)
	a, _, err = e.Join(a, p2, func() {}, func() {})
	require.NoError(t, err)

	a, _, err = e.HandleCountdownFired(a, "game-1", func() {})
	require.NoError(t, err)
	require.Equal(t, GameStatusLearning, a.GameStatus)

	a, _, err = e.HandleLearningEnd(a)
	require.NoError(t, err)
	require.Equal(t, GameStatusActive, a.GameStatus)

	a, _, err = e.HandleGameFinished(a)
	require.NoError(t, err)
	require.Equal(t, GameStatusFinished, a.GameStatus)

	payouts := []*uint256.Int{uint256.NewInt(975_000_000_000), uint256.NewInt(975_000_000_000)}
	a, evts, err := e.ProcessWinners(a, []common.Address{p1, p2}, payouts, 1, []byte{0x01})
	require.NoError(t, err)
	require.True(t, a.IsFinalized)
	require.Equal(t, uint64(1), a.UsedNonce)
	require.Len(t, evts, 1)

	_, _, err = e.ProcessWinners(a, []common.Address{p1, p2}, payouts, 2, []byte{0x01})
	require.Error(t, err)
	require.Equal(t, ErrCodeAlreadyFinalized, err.(*ValidationError).Code)
}

func TestProcessWinnersRejectsNonPlayerWinner(t *testing.T) {
	e := NewEngine()
	a := newTestArena(2)
	p1, p2, stranger := common.HexToAddress("0xB1"), common.HexToAddress("0xB2"), common.HexToAddress("0xFF")
	a, _, _ = e.Join(a, p1, func() {}, func() {})
	a, _, _ = e.Join(a, p2, func() {}, func() {})
	a, _, _ = e.HandleCountdownFired(a, "game-1", func() {})
	a, _, _ = e.HandleLearningEnd(a)
	a, _, _ = e.HandleGameFinished(a)

	_, _, err := e.ProcessWinners(a, []common.Address{stranger}, []*uint256.Int{uint256.NewInt(1)}, 1, nil)
	require.Error(t, err)
}
