// Package game holds the in-process Game aggregate store. Unlike the arena
// document (state/arena), a Game is short-lived (it exists only between the
// game-start countdown that opens the learning phase and finish) and is fully reconstructible from
// the arena's recorded outcome once finished, so it is kept in memory rather
// than durably persisted: the specification's single-active-orchestrator
// assumption (no cross-replica consensus, spec.md §1 Non-goals) means a
// process restart mid-game is already outside the orchestrator's recovery
// guarantees, matching how the finished arena's Result carries the durable
// record of what a game produced.
package game

import (
	"errors"
	"sync"

	nativegame "clawarena/native/game"
)

// ErrNotFound is returned when no game is stored for the requested ID.
var ErrNotFound = errors.New("state/game: not found")

// Store holds in-flight Game aggregates keyed by their opaque ID.
type Store struct {
	mu    sync.Mutex
	games map[string]*nativegame.Game
}

// NewStore constructs an empty in-memory game store.
func NewStore() *Store {
	return &Store{games: make(map[string]*nativegame.Game)}
}

// Save upserts g under its ID.
func (s *Store) Save(g *nativegame.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

// Load returns the game stored under id, or ErrNotFound.
func (s *Store) Load(id string) (*nativegame.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// Delete removes a finished game's in-memory record.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}
