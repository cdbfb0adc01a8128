package game

import (
	"math"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// ClawAttemptsPerPlayer bounds how many grab attempts each player gets
// during the arena's single claw round. The specification leaves the exact
// count unspecified ("up to attempts_per_player grabs"); this value is
// recorded as an open-question decision in the design notes.
const ClawAttemptsPerPlayer = 5

// ClawGrabThreshold is the maximum Euclidean distance, in percent
// coordinates, within which a grab attempt can capture a prize.
const ClawGrabThreshold = 15.0

// ClawPrizeKind enumerates prize tiers and their point values.
type ClawPrizeKind string

const (
	ClawPrizeCommon   ClawPrizeKind = "common"
	ClawPrizeUncommon ClawPrizeKind = "uncommon"
	ClawPrizeRare     ClawPrizeKind = "rare"
	ClawPrizeGolden   ClawPrizeKind = "golden"
)

var clawPrizeValues = map[ClawPrizeKind]int{
	ClawPrizeCommon:   10,
	ClawPrizeUncommon: 25,
	ClawPrizeRare:     50,
	ClawPrizeGolden:   100,
}

// ClawPrize is one prize on the board.
type ClawPrize struct {
	X, Y    float64
	Kind    ClawPrizeKind
	Value   int
	Present bool
}

// ClawChallenge is the claw variant's Challenge payload: the prize board and
// each player's remaining attempts.
type ClawChallenge struct {
	Prizes            []*ClawPrize
	AttemptsRemaining map[common.Address]int
}

// Claw implements Variant for the claw-machine mini-game.
type Claw struct{}

func NewClaw() *Claw { return &Claw{} }

func (Claw) GameType() arena.GameType { return arena.GameTypeClaw }
func (Claw) MaxRounds() int           { return 1 }

func (Claw) InitialChallenge(roundNumber int, joinOrder []common.Address, seed uint64) Challenge {
	r := newRNG(seed)
	layout := []ClawPrizeKind{
		ClawPrizeGolden,
		ClawPrizeRare, ClawPrizeRare,
		ClawPrizeUncommon, ClawPrizeUncommon, ClawPrizeUncommon,
		ClawPrizeCommon, ClawPrizeCommon, ClawPrizeCommon, ClawPrizeCommon, ClawPrizeCommon, ClawPrizeCommon,
	}
	prizes := make([]*ClawPrize, 0, len(layout))
	for _, kind := range layout {
		prizes = append(prizes, &ClawPrize{
			X:       r.float64() * 100,
			Y:       r.float64() * 100,
			Kind:    kind,
			Value:   clawPrizeValues[kind],
			Present: true,
		})
	}
	attempts := make(map[common.Address]int, len(joinOrder))
	for _, p := range joinOrder {
		attempts[p] = ClawAttemptsPerPlayer
	}
	return &ClawChallenge{Prizes: prizes, AttemptsRemaining: attempts}
}

func (Claw) ValidateMove(player common.Address, move Move, challenge Challenge) (int, error) {
	if move.Kind != MoveKindClawGrab || move.ClawGrab == nil {
		return 0, newErr(ErrCodeInvalidMove, "expected a claw grab move")
	}
	cc := challenge.(*ClawChallenge)
	if cc.AttemptsRemaining[player] <= 0 {
		return 0, newErr(ErrCodeInvalidMove, "no grab attempts remaining")
	}
	cc.AttemptsRemaining[player]--

	var nearest *ClawPrize
	nearestDist := math.MaxFloat64
	for _, prize := range cc.Prizes {
		if !prize.Present {
			continue
		}
		dist := math.Hypot(prize.X-move.ClawGrab.X, prize.Y-move.ClawGrab.Y)
		if dist <= ClawGrabThreshold && dist < nearestDist {
			nearest = prize
			nearestDist = dist
		}
	}
	if nearest == nil {
		return 0, nil
	}
	nearest.Present = false
	return nearest.Value, nil
}

func (Claw) AutoMove(player common.Address, challenge Challenge, seed uint64) Move {
	cc := challenge.(*ClawChallenge)
	r := newRNG(seed ^ uint64(addrHash(player)))
	for _, prize := range cc.Prizes {
		if prize.Present {
			return Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: prize.X, Y: prize.Y}}
		}
	}
	return Move{Kind: MoveKindClawGrab, ClawGrab: &ClawGrabMove{X: r.float64() * 100, Y: r.float64() * 100}}
}

func (Claw) RoundResolution(g *Game) bool { return true } // single round, always terminal

func (Claw) FinalRanking(players map[common.Address]*PlayerState, joinOrder []common.Address) []common.Address {
	ranked := append([]common.Address{}, joinOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := players[ranked[i]], players[ranked[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return strictlyEarlier(a.LastMove, b.LastMove)
	})
	return ranked
}

// strictlyEarlier reports whether a's last grab happened before b's,
// treating a zero time (never grabbed) as latest. Equal times fall through
// to sort.SliceStable's preservation of join order.
func strictlyEarlier(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}

func addrHash(addr common.Address) uint32 {
	var h uint32
	for _, b := range addr.Bytes() {
		h = h*31 + uint32(b)
	}
	return h
}
