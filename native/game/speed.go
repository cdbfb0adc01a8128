package game

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// SpeedRounds is the fixed number of rounds per speed game.
const SpeedRounds = 10

// SpeedChallengeKind enumerates the reflex/puzzle prompt types a speed
// round may draw.
type SpeedChallengeKind string

const (
	SpeedChallengeMath     SpeedChallengeKind = "math"
	SpeedChallengePattern  SpeedChallengeKind = "pattern"
	SpeedChallengeReaction SpeedChallengeKind = "reaction"
)

// SpeedChallenge is the speed variant's Challenge payload.
type SpeedChallenge struct {
	Kind          SpeedChallengeKind
	Prompt        string
	CorrectAnswer string
}

// Speed implements Variant for the reflex/puzzle mini-game.
type Speed struct{}

func NewSpeed() *Speed { return &Speed{} }

func (Speed) GameType() arena.GameType { return arena.GameTypeSpeed }
func (Speed) MaxRounds() int           { return SpeedRounds }

var speedPatternAlphabet = []string{"A", "B", "C", "D", "E"}

func (Speed) InitialChallenge(roundNumber int, joinOrder []common.Address, seed uint64) Challenge {
	r := newRNG(seed)
	switch SpeedChallengeKind([]string{"math", "pattern", "reaction"}[r.intn(3)]) {
	case SpeedChallengeMath:
		a, b := r.intn(50)+1, r.intn(50)+1
		return &SpeedChallenge{
			Kind:          SpeedChallengeMath,
			Prompt:        fmt.Sprintf("%d + %d", a, b),
			CorrectAnswer: fmt.Sprintf("%d", a+b),
		}
	case SpeedChallengePattern:
		seq := make([]string, 4)
		start := r.intn(len(speedPatternAlphabet))
		for i := range seq {
			seq[i] = speedPatternAlphabet[(start+i)%len(speedPatternAlphabet)]
		}
		next := speedPatternAlphabet[(start+len(seq))%len(speedPatternAlphabet)]
		return &SpeedChallenge{
			Kind:          SpeedChallengePattern,
			Prompt:        fmt.Sprintf("%v, ?", seq),
			CorrectAnswer: next,
		}
	default:
		return &SpeedChallenge{
			Kind:          SpeedChallengeReaction,
			Prompt:        "wait for go",
			CorrectAnswer: "go",
		}
	}
}

func (Speed) ValidateMove(player common.Address, move Move, challenge Challenge) (int, error) {
	if move.Kind != MoveKindSpeedAnswer || move.SpeedAnswer == nil {
		return 0, newErr(ErrCodeInvalidMove, "expected a speed answer move")
	}
	sc := challenge.(*SpeedChallenge)
	answer := move.SpeedAnswer
	if sc.Kind == SpeedChallengeReaction && answer.TooEarly {
		return 0, nil
	}
	if answer.Answer != sc.CorrectAnswer {
		return 0, nil
	}
	score := 100 - int(answer.ResponseMS/50)
	if score < 10 {
		score = 10
	}
	return score, nil
}

func (Speed) AutoMove(player common.Address, challenge Challenge, seed uint64) Move {
	// Absent players are treated as timeouts: no answer, zero score.
	return Move{Kind: MoveKindSpeedAnswer, SpeedAnswer: &SpeedAnswerMove{Answer: "", ResponseMS: int64(MoveTimeoutDefault.Milliseconds())}}
}

func (Speed) RoundResolution(g *Game) bool { return false }

func (Speed) FinalRanking(players map[common.Address]*PlayerState, joinOrder []common.Address) []common.Address {
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
