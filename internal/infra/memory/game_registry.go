package memory

import (
	"context"
	"sync"
	"time"

	"halloween-trivia/internal/app"
)

// GameRegistry is an in-memory implementation of app.GameRepository.
type GameRegistry struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		games: make(map[string]*app.Game),
	}
}

func (r *GameRegistry) GetOrCreate(clientID string, now time.Time, create func(string) *app.Game) *app.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[clientID]
	if !ok {
		g = create(clientID)
		r.games[clientID] = g
	}
	g.Touch(now)
	return g
}

func (r *GameRegistry) Get(clientID string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[clientID]
	return g, ok
}

func (r *GameRegistry) DeleteIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, g := range r.games {
		if g.LastSeen().Before(cutoff) {
			g.Close()
			delete(r.games, id)
			n++
		}
	}
	return n
}

// Live reports the number of live controllers.
func (r *GameRegistry) Live(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games), nil
}
