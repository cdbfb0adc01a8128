package game

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestBlackjackHandValueHandlesSoftAces(t *testing.T) {
	require.Equal(t, 21, blackjackHandValue([]int{1, 13}))  // ace + king
	require.Equal(t, 12, blackjackHandValue([]int{1, 1, 10})) // two aces + ten: 11+1+10? reduces to 12
	require.Equal(t, 20, blackjackHandValue([]int{10, 10}))
}

func TestBlackjackHitBeyond21Busts(t *testing.T) {
	bj := NewBlackjack()
	challenge := &BlackjackChallenge{
		Deck:  []int{10},
		Hands: map[common.Address]*BlackjackHand{addr(1): {Cards: []int{10, 10}}},
	}
	delta, err := bj.ValidateMove(addr(1), Move{Kind: MoveKindBlackjackAction, BlackjackAction: &BlackjackActionMove{Action: BlackjackHit}}, challenge)
	require.NoError(t, err)
	require.Equal(t, -10, delta)
	require.True(t, challenge.Hands[addr(1)].Bust)
	require.True(t, challenge.Hands[addr(1)].Done)
}

func TestBlackjackStandMarksHandDoneWithoutImmediateDelta(t *testing.T) {
	bj := NewBlackjack()
	challenge := &BlackjackChallenge{Hands: map[common.Address]*BlackjackHand{addr(1): {Cards: []int{10, 9}}}}
	delta, err := bj.ValidateMove(addr(1), Move{Kind: MoveKindBlackjackAction, BlackjackAction: &BlackjackActionMove{Action: BlackjackStand}}, challenge)
	require.NoError(t, err)
	require.Equal(t, 0, delta)
	require.True(t, challenge.Hands[addr(1)].Done)
}

func TestBlackjackRoundResolutionAwardsBeatDealer(t *testing.T) {
	bj := NewBlackjack()
	players := map[common.Address]*PlayerState{addr(1): {Score: 0}}
	challenge := &BlackjackChallenge{
		Deck:       []int{2, 3, 4},
		Hands:      map[common.Address]*BlackjackHand{addr(1): {Cards: []int{10, 9}, Done: true}},
		DealerHand: []int{10, 6}, // 16, must draw
	}
	g := &Game{
		JoinOrder:        []common.Address{addr(1)},
		Players:          players,
		CurrentChallenge: challenge,
	}
	bj.RoundResolution(g)
	require.Equal(t, 20, players[addr(1)].Score) // 19 beats the dealer's 16+2=18
}

func TestBlackjackNaturalBeatsNonNatural(t *testing.T) {
	bj := NewBlackjack()
	players := map[common.Address]*PlayerState{addr(1): {Score: 0}}
	challenge := &BlackjackChallenge{
		Deck:       []int{2},
		Hands:      map[common.Address]*BlackjackHand{addr(1): {Cards: []int{1, 13}, Done: true}}, // natural 21
		DealerHand: []int{10, 7},                                                                  // 17, stands
	}
	g := &Game{
		JoinOrder:        []common.Address{addr(1)},
		Players:          players,
		CurrentChallenge: challenge,
	}
	bj.RoundResolution(g)
	require.Equal(t, 30, players[addr(1)].Score)
}
