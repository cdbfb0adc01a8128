package arena

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/events"
)

const (
	EventTypePlayerJoined    = "arena.player_joined"
	EventTypeClosed          = "arena.closed"
	EventTypeCancelled       = "arena.cancelled"
	EventTypeLearningStarted = "arena.learning_started"
	EventTypeGameActive      = "arena.game_active"
	EventTypeFinished        = "arena.finished"
	EventTypeFinalized       = "arena.finalized"
	EventTypeRefundIntent    = "arena.refund_intent"
)

func newArenaEvent(eventType string, a *Arena) events.Event {
	attrs := map[string]string{
		"arena":      a.Address.Hex(),
		"gameStatus": string(a.GameStatus),
		"isClosed":   strconv.FormatBool(a.IsClosed),
		"players":    strconv.Itoa(len(a.Players)),
	}
	return events.Event{Type: eventType, Attributes: attrs}
}

// NewPlayerJoinedEvent reports a successful join.
func NewPlayerJoinedEvent(a *Arena, player common.Address) events.Event {
	e := newArenaEvent(EventTypePlayerJoined, a)
	e.Attributes["player"] = player.Hex()
	return e
}

// NewClosedEvent reports the arena transitioning to closed.
func NewClosedEvent(a *Arena) events.Event { return newArenaEvent(EventTypeClosed, a) }

// NewCancelledEvent reports the arena being cancelled by idle reap or deadline
// with an insufficient player count.
func NewCancelledEvent(a *Arena, reason string) events.Event {
	e := newArenaEvent(EventTypeCancelled, a)
	e.Attributes["reason"] = reason
	return e
}

// NewLearningStartedEvent reports the countdown firing into the learning phase.
func NewLearningStartedEvent(a *Arena, gameID string) events.Event {
	e := newArenaEvent(EventTypeLearningStarted, a)
	e.Attributes["game"] = gameID
	return e
}

// NewGameActiveEvent reports the learning phase ending into active rounds.
func NewGameActiveEvent(a *Arena) events.Event { return newArenaEvent(EventTypeGameActive, a) }

// NewFinishedEvent reports the game engine reaching its terminal round.
func NewFinishedEvent(a *Arena) events.Event { return newArenaEvent(EventTypeFinished, a) }

// NewFinalizedEvent reports a successful finalize-signature authorization.
func NewFinalizedEvent(a *Arena, nonce uint64) events.Event {
	e := newArenaEvent(EventTypeFinalized, a)
	e.Attributes["nonce"] = strconv.FormatUint(nonce, 10)
	return e
}

// NewRefundIntentEvent records an off-chain refund intent for a sole player
// when an arena cancels without reaching the minimum fill.
func NewRefundIntentEvent(a *Arena, player common.Address) events.Event {
	e := newArenaEvent(EventTypeRefundIntent, a)
	e.Attributes["player"] = player.Hex()
	return e
}
