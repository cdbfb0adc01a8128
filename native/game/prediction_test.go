package game

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestPredictionExactGuessScoresMax(t *testing.T) {
	p := NewPrediction()
	joinOrder := []common.Address{addr(1)}
	challenge := p.InitialChallenge(1, joinOrder, 99).(*PredictionChallenge)

	delta, err := p.ValidateMove(addr(1), Move{Kind: MoveKindPredictionGuess, PredictionGuess: &PredictionGuessMove{Guess: challenge.Target}}, challenge)
	require.NoError(t, err)
	require.Equal(t, 100, delta)
}

func TestPredictionFarGuessScoresZeroFloor(t *testing.T) {
	p := NewPrediction()
	challenge := &PredictionChallenge{Target: 0, Min: 0, Max: 100}

	delta, err := p.ValidateMove(addr(1), Move{Kind: MoveKindPredictionGuess, PredictionGuess: &PredictionGuessMove{Guess: 100000}}, challenge)
	require.NoError(t, err)
	require.Equal(t, 0, delta)
}

func TestPredictionRejectsWrongMoveKind(t *testing.T) {
	p := NewPrediction()
	challenge := &PredictionChallenge{Target: 50, Min: 0, Max: 100}
	_, err := p.ValidateMove(addr(1), Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{}}, challenge)
	require.Error(t, err)
}
