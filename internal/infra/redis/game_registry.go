package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"halloween-trivia/internal/app"
)

const markerTimeout = 500 * time.Millisecond

// GameRegistry is a Redis-aware implementation of app.GameRepository.
// Controllers live in a local map. Redis holds a liveness marker per client,
// refreshed at most twice per TTL.
type GameRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
	marked map[string]time.Time
}

func NewGameRegistry(client *redis.Client, ttl time.Duration) *GameRegistry {
	return &GameRegistry{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
		marked: make(map[string]time.Time),
	}
}

func (r *GameRegistry) GetOrCreate(clientID string, now time.Time, create func(string) *app.Game) *app.Game {
	r.mu.Lock()
	g, ok := r.games[clientID]
	if !ok {
		g = create(clientID)
		r.games[clientID] = g
	}
	g.Touch(now)
	refresh := !ok || now.Sub(r.marked[clientID]) >= r.ttl/2
	if refresh {
		r.marked[clientID] = now
	}
	r.mu.Unlock()

	if refresh {
		ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
		defer cancel()
		_ = r.client.Set(ctx, r.key(clientID), "1", r.ttl).Err()
	}
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
	var stale []string
	for id, g := range r.games {
		if g.LastSeen().Before(cutoff) {
			g.Close()
			delete(r.games, id)
			delete(r.marked, id)
			stale = append(stale, r.key(id))
		}
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
		defer cancel()
		_ = r.client.Del(ctx, stale...).Err()
	}
	return len(stale)
}

// Live counts the liveness markers currently in Redis, across every instance.
func (r *GameRegistry) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, "trivia:client:*", 100).Result()
		if err != nil {
			return 0, err
		}
		n += len(keys)
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}

func (r *GameRegistry) key(clientID string) string {
	return "trivia:client:" + clientID
}
