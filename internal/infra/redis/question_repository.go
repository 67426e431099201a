package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/infra/memory"
)

// QuestionRepository caches question pools in Redis and falls back to a loader on cache miss.
// Pools are stored as JSON: SET trivia:questions:{category} [...]
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	key := r.key(category)
	if pool, ok := r.cached(ctx, key); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(ctx, key); ok {
			return pool, nil
		}
		pool, err := r.loader.LoadQuestions(ctx, category)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(pool); err == nil && len(pool) > 0 {
			_ = r.client.Set(ctx, key, payload, r.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pools of every category.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		keys = append(keys, r.key(c.Name))
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(payload, &pool); err != nil {
		return nil, false
	}
	return pool, true
}

func (r *QuestionRepository) key(category domain.Category) string {
	return "trivia:questions:" + string(category)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
