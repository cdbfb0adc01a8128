package game

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestClawGrabCapturesNearestPrizeWithinThreshold(t *testing.T) {
	claw := NewClaw()
	joinOrder := []common.Address{addr(1)}
	challenge := claw.InitialChallenge(1, joinOrder, 42).(*ClawChallenge)
	prize := challenge.Prizes[0]

	delta, err := claw.ValidateMove(addr(1), Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: prize.X, Y: prize.Y}}, challenge)
	require.NoError(t, err)
	require.Equal(t, prize.Value, delta)
	require.False(t, prize.Present)
}

func TestClawGrabMissesBeyondThreshold(t *testing.T) {
	claw := NewClaw()
	joinOrder := []common.Address{addr(1)}
	challenge := claw.InitialChallenge(1, joinOrder, 7).(*ClawChallenge)

	delta, err := claw.ValidateMove(addr(1), Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -9999, Y: -9999}}, challenge)
	require.NoError(t, err)
	require.Equal(t, 0, delta)
}

func TestClawAttemptsAreBounded(t *testing.T) {
	claw := NewClaw()
	joinOrder := []common.Address{addr(1)}
	challenge := claw.InitialChallenge(1, joinOrder, 1).(*ClawChallenge)

	for i := 0; i < ClawAttemptsPerPlayer; i++ {
		_, err := claw.ValidateMove(addr(1), Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -9999, Y: -9999}}, challenge)
		require.NoError(t, err)
	}
	_, err := claw.ValidateMove(addr(1), Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -9999, Y: -9999}}, challenge)
	require.Error(t, err)
}
