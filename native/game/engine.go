package game

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"clawarena/native/arena"
	"clawarena/observability/metrics"
)

// MoveTimeoutDefault is the per-round/per-move deadline used when a variant
// or arena configuration does not override it.
const MoveTimeoutDefault = 10 * time.Second

// Registry maps each supported game type to its Variant implementation.
type Registry map[arena.GameType]Variant

// NewDefaultRegistry returns the built-in four-variant registry.
func NewDefaultRegistry() Registry {
	return Registry{
		arena.GameTypeClaw:       NewClaw(),
		arena.GameTypePrediction: NewPrediction(),
		arena.GameTypeSpeed:      NewSpeed(),
		arena.GameTypeBlackjack:  NewBlackjack(),
	}
}

// Engine hosts games for all four variants behind the shared phase machine.
type Engine struct {
	registry Registry
}

// NewEngine constructs an Engine using the supplied variant registry.
// Production callers pass NewDefaultRegistry(); tests may substitute a
// reduced registry.
func NewEngine(registry Registry) *Engine {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	return &Engine{registry: registry}
}

// NewGame creates a Game in the waiting phase for gameType, to be advanced
// to learning by the arena state machine's learning-started transition and
// to active once the learning timer fires. configuredWinnerCount is the
// arena's Config.WinnerCount; zero means DefaultWinnerCount(len(joinOrder)).
// The result is clamped to len(joinOrder) and fixed here, at creation.
func (e *Engine) NewGame(arenaID string, gameType arena.GameType, joinOrder []common.Address, creationInstant time.Time, configuredWinnerCount uint32) (*Game, error) {
	variant, ok := e.registry[gameType]
	if !ok {
		return nil, newErr(ErrCodeInvalidMove, "unsupported game type "+string(gameType))
	}
	players := make(map[common.Address]*PlayerState, len(joinOrder))
	for _, p := range joinOrder {
		players[p] = &PlayerState{Status: "active"}
	}
	winnerCount := int(configuredWinnerCount)
	if winnerCount <= 0 {
		winnerCount = DefaultWinnerCount(len(joinOrder))
	}
	if winnerCount > len(joinOrder) {
		winnerCount = len(joinOrder)
	}
	return &Game{
		ID:              uuid.NewString(),
		GameType:        gameType,
		Status:          StatusWaiting,
		RoundNumber:     0,
		MaxRounds:       variant.MaxRounds(),
		Players:         players,
		JoinOrder:       append([]common.Address{}, joinOrder...),
		WinnerCount:     winnerCount,
		ArenaID:         arenaID,
		CreationInstant: creationInstant.UnixNano(),
		movesThisRound:  make(map[common.Address]bool),
	}, nil
}

// StartLearning transitions waiting -> learning; no moves are accepted
// during this fixed interval.
func (g *Game) StartLearning() { g.Status = StatusLearning }

// StartActive transitions learning -> active and opens round 1.
func (e *Engine) StartActive(g *Game) error {
	variant := e.registry[g.GameType]
	g.Status = StatusActive
	return e.openRound(g, variant, 1)
}

func (e *Engine) openRound(g *Game, variant Variant, round int) error {
	g.RoundNumber = round
	seed := DeriveSeed(g.ArenaID, g.CreationInstant, round)
	g.CurrentChallenge = variant.InitialChallenge(round, g.JoinOrder, seed)
	g.RoundDeadline = time.Now().Add(MoveTimeoutDefault)
	g.movesThisRound = make(map[common.Address]bool)
	return nil
}

// multiMoveVariants accept more than one move per player per round: claw
// (up to ClawAttemptsPerPlayer grabs) and blackjack (repeated hits until
// stand/bust). Every other variant accepts exactly one move per round.
func multiMoveVariant(t arena.GameType) bool {
	return t == arena.GameTypeBlackjack || t == arena.GameTypeClaw
}

// SubmitMove implements the move-submission contract: rejects if the game
// is not active, the player is not a participant, a move for this round is
// already submitted (claw and blackjack excepted, which accept repeated
// moves until their variant-specific exhaustion condition), or the move
// fails variant validation.
func (e *Engine) SubmitMove(g *Game, player common.Address, move Move) (MoveResult, error) {
	if g.Status != StatusActive {
		return MoveResult{}, newErr(ErrCodeGameNotActive, "game is not active")
	}
	state, ok := g.Players[player]
	if !ok {
		return MoveResult{}, newErr(ErrCodeNotParticipant, "player is not a participant")
	}
	if state.Status == "done" {
		return MoveResult{}, newErr(ErrCodeMoveAlreadySent, "player has no more moves this round")
	}
	alreadyMoved := g.movesThisRound[player]
	if alreadyMoved && !multiMoveVariant(g.GameType) {
		return MoveResult{}, newErr(ErrCodeMoveAlreadySent, "move already submitted for this round")
	}

	variant := e.registry[g.GameType]
	delta, err := variant.ValidateMove(player, move, g.CurrentChallenge)
	if err != nil {
		return MoveResult{}, err
	}
	state.Score += delta
	state.LastMove = time.Now()
	g.movesThisRound[player] = true

	switch g.GameType {
	case arena.GameTypeBlackjack:
		// A hand is done once the player stands or busts (bust is the only
		// move that scores a negative delta); repeated hits otherwise stay
		// open for the blackjack move-submission exception.
		if move.BlackjackAction != nil && move.BlackjackAction.Action == BlackjackStand || delta < 0 {
			state.Status = "done"
		}
	case arena.GameTypeClaw:
		cc := g.CurrentChallenge.(*ClawChallenge)
		if cc.AttemptsRemaining[player] <= 0 {
			state.Status = "done"
		}
	default:
		state.Status = "done"
	}

	metrics.Game().ObserveMoveSubmitted(string(g.GameType))

	resolved := e.allMovesIn(g)
	return MoveResult{ScoreDelta: delta, NewScore: state.Score, RoundResolved: resolved}, nil
}

func (e *Engine) allMovesIn(g *Game) bool {
	for _, p := range g.JoinOrder {
		if g.Players[p].Status != "done" {
			return false
		}
	}
	return true
}

// AdvanceRound is invoked when the round deadline passes or all active
// players have submitted. Absent players receive auto_move with the
// round's deterministic seed. It returns true if the game is now finished.
func (e *Engine) AdvanceRound(g *Game) (finished bool) {
	variant := e.registry[g.GameType]
	seed := DeriveSeed(g.ArenaID, g.CreationInstant, g.RoundNumber)
	for _, p := range g.JoinOrder {
		state := g.Players[p]
		if state.Status == "done" {
			continue
		}
		move := variant.AutoMove(p, g.CurrentChallenge, seed)
		if delta, err := variant.ValidateMove(p, move, g.CurrentChallenge); err == nil {
			state.Score += delta
		}
		state.Status = "done"
		metrics.Game().ObserveAutoMove(string(g.GameType))
	}

	terminate := variant.RoundResolution(g)
	metrics.Game().ObserveRoundResolved(string(g.GameType))

	if terminate || g.RoundNumber >= g.MaxRounds {
		g.Status = StatusFinished
		ranked := variant.FinalRanking(g.Players, g.JoinOrder)
		n := g.WinnerCount
		if n <= 0 || n > len(ranked) {
			n = len(ranked)
		}
		g.Winners = ranked[:n]
		return true
	}

	for _, p := range g.JoinOrder {
		g.Players[p].Status = "active"
	}
	_ = e.openRound(g, variant, g.RoundNumber+1)
	return false
}
