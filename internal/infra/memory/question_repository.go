package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"halloween-trivia/internal/domain"
)

// QuestionLoader fetches the question pool of a category from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error)
}

// QuestionRepository caches question pools per category with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[domain.Category]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Category]cachedPool),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	if pool, ok := r.cached(category); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(string(category), func() (interface{}, error) {
		if pool, ok := r.cached(category); ok {
			return pool, nil
		}
		pool, err := r.loader.LoadQuestions(ctx, category)
		if err != nil {
			return nil, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.cache[category] = cachedPool{questions: pool, expiresAt: r.clock().Add(r.ttlWithJitterLocked())}
			r.mu.Unlock()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops every cached pool.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[domain.Category]cachedPool)
	r.mu.Unlock()
}

func (r *QuestionRepository) cached(category domain.Category) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[category]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionRepository) ttlWithJitterLocked() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves a fixed bank (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, category domain.Category) ([]domain.Question, error) {
	return FilterCategory(l.questions, category), nil
}

// FilterCategory returns the questions of category in bank order; the mixed
// category returns all of them.
func FilterCategory(bank []domain.Question, category domain.Category) []domain.Question {
	out := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if category == domain.CategoryMixed || q.Category == category {
			out = append(out, q)
		}
	}
	return out
}
