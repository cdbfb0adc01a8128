package game

import (
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// PredictionRounds is the fixed number of rounds per prediction game.
const PredictionRounds = 3

// PredictionMin and PredictionMax bound the hidden target's uniform draw.
// The specification leaves the exact range unspecified; this is recorded as
// an open-question decision in the design notes.
const (
	PredictionMin int64 = 0
	PredictionMax int64 = 100
)

// PredictionChallenge is the prediction variant's Challenge payload: a
// hidden target drawn uniformly from [Min, Max].
type PredictionChallenge struct {
	Target int64
	Min    int64
	Max    int64
}

// Prediction implements Variant for the target-guessing mini-game.
type Prediction struct{}

func NewPrediction() *Prediction { return &Prediction{} }

func (Prediction) GameType() arena.GameType { return arena.GameTypePrediction }
func (Prediction) MaxRounds() int           { return PredictionRounds }

func (Prediction) InitialChallenge(roundNumber int, joinOrder []common.Address, seed uint64) Challenge {
	r := newRNG(seed)
	span := PredictionMax - PredictionMin + 1
	target := PredictionMin + int64(r.intn(int(span)))
	return &PredictionChallenge{Target: target, Min: PredictionMin, Max: PredictionMax}
}

func (Prediction) ValidateMove(player common.Address, move Move, challenge Challenge) (int, error) {
	if move.Kind != MoveKindPredictionGuess || move.PredictionGuess == nil {
		return 0, newErr(ErrCodeInvalidMove, "expected a prediction guess move")
	}
	pc := challenge.(*PredictionChallenge)
	diff := math.Abs(float64(move.PredictionGuess.Guess - pc.Target))
	span := float64(pc.Max - pc.Min)
	if span <= 0 {
		span = 1
	}
	score := 100 - int(math.Round(diff/span*100))
	if score < 0 {
		score = 0
	}
	return score, nil
}

func (Prediction) AutoMove(player common.Address, challenge Challenge, seed uint64) Move {
	pc := challenge.(*PredictionChallenge)
	r := newRNG(seed ^ uint64(addrHash(player)))
	span := pc.Max - pc.Min + 1
	guess := pc.Min + int64(r.intn(int(span)))
	return Move{Kind: MoveKindPredictionGuess, PredictionGuess: &PredictionGuessMove{Guess: guess}}
}

func (Prediction) RoundResolution(g *Game) bool { return false }

func (Prediction) FinalRanking(players map[common.Address]*PlayerState, joinOrder []common.Address) []common.Address {
	ranked := append([]common.Address{}, joinOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := players[ranked[i]], players[ranked[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return indexOf(joinOrder, ranked[i]) < indexOf(joinOrder, ranked[j])
	})
	return ranked
}

func indexOf(order []common.Address, addr common.Address) int {
	for i, a := range order {
		if a == addr {
			return i
		}
	}
	return len(order)
}
