package game

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/native/arena"
)

// BlackjackHands is the fixed number of hands (rounds) per blackjack game.
const BlackjackHands = 5

// BlackjackDealerStand is the total at which the dealer stops drawing.
const BlackjackDealerStand = 17

// BlackjackHand tracks one player's cards and whether they have finished
// acting for the hand (stood or busted).
type BlackjackHand struct {
	Cards []int // rank 1-13, ace=1
	Done  bool
	Bust  bool
}

// BlackjackChallenge is the blackjack variant's Challenge payload: a
// shuffled shoe, each player's hand, and the dealer's hand.
type BlackjackChallenge struct {
	Deck       []int
	DeckPos    int
	Hands      map[common.Address]*BlackjackHand
	DealerHand []int
	Resolved   bool
}

func (c *BlackjackChallenge) draw() int {
	if c.DeckPos >= len(c.Deck) {
		c.DeckPos = 0 // shoe exhausted mid-hand: reshuffle is out of scope, wrap rather than panic
	}
	card := c.Deck[c.DeckPos]
	c.DeckPos++
	return card
}

// Blackjack implements Variant for the dealer-vs-player card mini-game.
type Blackjack struct{}

func NewBlackjack() *Blackjack { return &Blackjack{} }

func (Blackjack) GameType() arena.GameType { return arena.GameTypeBlackjack }
func (Blackjack) MaxRounds() int           { return BlackjackHands }

func (Blackjack) InitialChallenge(roundNumber int, joinOrder []common.Address, seed uint64) Challenge {
	r := newRNG(seed)
	deck := make([]int, 0, 52)
	for suit := 0; suit < 4; suit++ {
		for rank := 1; rank <= 13; rank++ {
			deck = append(deck, rank)
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	challenge := &BlackjackChallenge{Deck: deck, Hands: make(map[common.Address]*BlackjackHand, len(joinOrder))}
	for _, p := range joinOrder {
		hand := &BlackjackHand{Cards: []int{challenge.draw(), challenge.draw()}}
		challenge.Hands[p] = hand
	}
	challenge.DealerHand = []int{challenge.draw(), challenge.draw()}
	return challenge
}

func blackjackCardValue(rank int) int {
	switch {
	case rank == 1:
		return 11
	case rank >= 11:
		return 10
	default:
		return rank
	}
}

func blackjackHandValue(cards []int) int {
	total := 0
	aces := 0
	for _, c := range cards {
		total += blackjackCardValue(c)
		if c == 1 {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func blackjackIsNatural(cards []int) bool {
	return len(cards) == 2 && blackjackHandValue(cards) == 21
}

func (Blackjack) ValidateMove(player common.Address, move Move, challenge Challenge) (int, error) {
	if move.Kind != MoveKindBlackjackAction || move.BlackjackAction == nil {
		return 0, newErr(ErrCodeInvalidMove, "expected a blackjack action move")
	}
	bc := challenge.(*BlackjackChallenge)
	hand, ok := bc.Hands[player]
	if !ok {
		return 0, newErr(ErrCodeNotParticipant, "no hand dealt for player")
	}
	if hand.Done {
		return 0, newErr(ErrCodeInvalidMove, "hand already finished")
	}

	switch move.BlackjackAction.Action {
	case BlackjackHit:
		hand.Cards = append(hand.Cards, bc.draw())
		if blackjackHandValue(hand.Cards) > 21 {
			hand.Done = true
			hand.Bust = true
			return -10, nil
		}
		return 0, nil
	case BlackjackStand:
		hand.Done = true
		return 0, nil
	default:
		return 0, newErr(ErrCodeInvalidMove, "unknown blackjack action")
	}
}

func (Blackjack) AutoMove(player common.Address, challenge Challenge, seed uint64) Move {
	return Move{Kind: MoveKindBlackjackAction, BlackjackAction: &BlackjackActionMove{Action: BlackjackStand}}
}

// RoundResolution is invoked once every hand is done (stood or busted). It
// plays the dealer's hand to BlackjackDealerStand and applies each
// non-busted hand's outcome delta directly to player scores, since the
// comparison against the dealer can only happen once all players have
// finished acting.
func (Blackjack) RoundResolution(g *Game) bool {
	bc, ok := g.CurrentChallenge.(*BlackjackChallenge)
	if !ok || bc.Resolved {
		return false
	}
	bc.Resolved = true

	for blackjackHandValue(bc.DealerHand) < BlackjackDealerStand {
		bc.DealerHand = append(bc.DealerHand, bc.draw())
	}
	dealerTotal := blackjackHandValue(bc.DealerHand)
	dealerBust := dealerTotal > 21

	for _, p := range g.JoinOrder {
		hand := bc.Hands[p]
		if hand == nil || hand.Bust {
			continue // bust delta already applied in ValidateMove
		}
		state := g.Players[p]
		switch {
		case blackjackIsNatural(hand.Cards) && !blackjackIsNatural(bc.DealerHand):
			state.Score += 30
		case dealerBust:
			state.Score += 20
		default:
			playerTotal := blackjackHandValue(hand.Cards)
			switch {
			case playerTotal > dealerTotal:
				state.Score += 20
			case playerTotal == dealerTotal:
				state.Score += 5
			default:
				state.Score += 0
			}
		}
	}
	return false
}

func (Blackjack) FinalRanking(players map[common.Address]*PlayerState, joinOrder []common.Address) []common.Address {
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
