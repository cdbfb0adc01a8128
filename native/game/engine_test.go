package game

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"clawarena/native/arena"
)

func addr(n byte) common.Address {
	var a common.Address
	a[19] = n
	return a
}

func TestDeriveSeedIsDeterministic(t *testing.T) {
	s1 := DeriveSeed("arena-1", 1000, 1)
	s2 := DeriveSeed("arena-1", 1000, 1)
	require.Equal(t, s1, s2)

	s3 := DeriveSeed("arena-1", 1000, 2)
	require.NotEqual(t, s1, s3)
}

func TestNewGameAndClawFullLifecycle(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2)}
	g, err := e.NewGame("arena-1", arena.GameTypeClaw, players, time.Unix(0, 1000), 0)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, g.Status)

	g.StartLearning()
	require.Equal(t, StatusLearning, g.Status)

	require.NoError(t, e.StartActive(g))
	require.Equal(t, StatusActive, g.Status)
	require.Equal(t, 1, g.RoundNumber)

	challenge := g.CurrentChallenge.(*ClawChallenge)
	var firstPrize *ClawPrize
	for _, p := range challenge.Prizes {
		if p.Present {
			firstPrize = p
			break
		}
	}
	require.NotNil(t, firstPrize)

	res, err := e.SubmitMove(g, players[0], Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: firstPrize.X, Y: firstPrize.Y}})
	require.NoError(t, err)
	require.Equal(t, firstPrize.Value, res.ScoreDelta)
	require.False(t, res.RoundResolved, "one of five attempts spent, player 0 is not done yet")

	// A second grab from the same player in the same round is accepted:
	// claw allows up to ClawAttemptsPerPlayer grabs, unlike the
	// one-move-per-round variants.
	res, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -1000, Y: -1000}})
	require.NoError(t, err)
	require.False(t, res.RoundResolved)

	// Player 0 exhausts the remaining three attempts; player 1 has not
	// moved at all yet, so the round still is not resolved.
	for i := 0; i < ClawAttemptsPerPlayer-2; i++ {
		res, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -1000, Y: -1000}})
		require.NoError(t, err)
	}
	require.False(t, res.RoundResolved)
	_, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -1000, Y: -1000}})
	require.Error(t, err, "no attempts remain for player 0")

	var res2 MoveResult
	for i := 0; i < ClawAttemptsPerPlayer; i++ {
		res2, err = e.SubmitMove(g, players[1], Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: -1000, Y: -1000}})
		require.NoError(t, err)
	}
	require.Equal(t, 0, res2.ScoreDelta)
	require.True(t, res2.RoundResolved, "both players have exhausted all attempts")

	finished := e.AdvanceRound(g)
	require.True(t, finished)
	require.Equal(t, StatusFinished, g.Status)
	require.Len(t, g.Winners, 2)
	require.Equal(t, players[0], g.Winners[0])
}

func TestSubmitMoveRejectsDuplicateForNonBlackjack(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2), addr(3)}
	g, err := e.NewGame("arena-2", arena.GameTypePrediction, players, time.Unix(0, 2000), 0)
	require.NoError(t, err)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	_, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindPredictionGuess, PredictionGuess: &PredictionGuessMove{Guess: 50}})
	require.NoError(t, err)

	_, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindPredictionGuess, PredictionGuess: &PredictionGuessMove{Guess: 60}})
	require.Error(t, err)
	gameErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrCodeMoveAlreadySent, gameErr.Code)
}

func TestSubmitMoveRejectsNonParticipant(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2)}
	g, err := e.NewGame("arena-3", arena.GameTypeSpeed, players, time.Unix(0, 3000), 0)
	require.NoError(t, err)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	_, err = e.SubmitMove(g, addr(9), Move{Kind: MoveKindSpeedAnswer, SpeedAnswer: &SpeedAnswerMove{Answer: "x"}})
	require.Error(t, err)
	gameErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrCodeNotParticipant, gameErr.Code)
}

func TestSubmitMoveRejectsWhenGameNotActive(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1)}
	g, err := e.NewGame("arena-4", arena.GameTypeSpeed, players, time.Unix(0, 4000), 0)
	require.NoError(t, err)

	_, err = e.SubmitMove(g, players[0], Move{Kind: MoveKindSpeedAnswer, SpeedAnswer: &SpeedAnswerMove{Answer: "x"}})
	require.Error(t, err)
	gameErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrCodeGameNotActive, gameErr.Code)
}

func TestBlackjackAllowsRepeatedHitsUntilStandOrBust(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1)}
	g, err := e.NewGame("arena-5", arena.GameTypeBlackjack, players, time.Unix(0, 5000), 0)
	require.NoError(t, err)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	for i := 0; i < 5; i++ {
		state := g.Players[players[0]]
		if state.Status == "done" {
			break
		}
		_, err := e.SubmitMove(g, players[0], Move{Kind: MoveKindBlackjackAction, BlackjackAction: &BlackjackActionMove{Action: BlackjackHit}})
		require.NoError(t, err)
	}
	require.Equal(t, "done", g.Players[players[0]].Status)
}

func TestAdvanceRoundAutoMovesAbsentPlayers(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2)}
	g, err := e.NewGame("arena-6", arena.GameTypePrediction, players, time.Unix(0, 6000), 0)
	require.NoError(t, err)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	finished := e.AdvanceRound(g)
	require.False(t, finished)
	require.Equal(t, 2, g.RoundNumber)
	for _, p := range players {
		require.Equal(t, "active", g.Players[p].Status)
	}
}

func TestPredictionGameRunsToCompletion(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2)}
	g, err := e.NewGame("arena-7", arena.GameTypePrediction, players, time.Unix(0, 7000), 0)
	require.NoError(t, err)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	for round := 1; round <= PredictionRounds; round++ {
		finished := e.AdvanceRound(g)
		if round < PredictionRounds {
			require.False(t, finished)
		} else {
			require.True(t, finished)
		}
	}
	require.Equal(t, StatusFinished, g.Status)
	require.Len(t, g.Winners, 2)
}

func TestAdvanceRoundTruncatesWinnersToDefaultConvention(t *testing.T) {
	e := NewEngine(nil)
	players := make([]common.Address, 9)
	for i := range players {
		players[i] = addr(byte(i + 1))
	}
	g, err := e.NewGame("arena-8", arena.GameTypePrediction, players, time.Unix(0, 8000), 0)
	require.NoError(t, err)
	require.Equal(t, 3, g.WinnerCount, "9 players exceeds the 8-player top-2 cutoff")
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	var finished bool
	for round := 1; round <= PredictionRounds; round++ {
		finished = e.AdvanceRound(g)
	}
	require.True(t, finished)
	require.Len(t, g.Winners, 3, "9-player games pay only the top 3, not every participant")
}

func TestAdvanceRoundHonorsWinnerCountOverride(t *testing.T) {
	e := NewEngine(nil)
	players := []common.Address{addr(1), addr(2), addr(3)}
	g, err := e.NewGame("arena-9", arena.GameTypePrediction, players, time.Unix(0, 9000), 1)
	require.NoError(t, err)
	require.Equal(t, 1, g.WinnerCount)
	g.StartLearning()
	require.NoError(t, e.StartActive(g))

	var finished bool
	for round := 1; round <= PredictionRounds; round++ {
		finished = e.AdvanceRound(g)
	}
	require.True(t, finished)
	require.Len(t, g.Winners, 1)
}
