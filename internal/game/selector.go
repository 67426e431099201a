package game

import (
	"math/rand"

	"halloween-trivia/internal/domain"
)

// RoomsPerGame is the number of questions in one play-through.
const RoomsPerGame = 5

// quota is the number of questions drawn per difficulty, in draw order.
var quota = []struct {
	difficulty domain.Difficulty
	count      int
}{
	{domain.DifficultyEasy, 2},
	{domain.DifficultyMedium, 2},
	{domain.DifficultyHard, 1},
}

// SelectQuestions draws 2 easy, 2 medium and 1 hard question from pool and
// returns them in random order. The pool is not modified.
func SelectQuestions(pool []domain.Question, rnd *rand.Rand) ([]domain.Question, error) {
	buckets := make(map[domain.Difficulty][]domain.Question, len(quota))
	for _, q := range pool {
		buckets[q.Difficulty] = append(buckets[q.Difficulty], q)
	}

	selected := make([]domain.Question, 0, RoomsPerGame)
	for _, want := range quota {
		bucket := buckets[want.difficulty]
		if len(bucket) < want.count {
			return nil, domain.ErrInsufficientQuestions
		}
		shuffle(rnd, bucket)
		selected = append(selected, bucket[:want.count]...)
	}
	shuffle(rnd, selected)
	return selected, nil
}

func shuffle(rnd *rand.Rand, qs []domain.Question) {
	rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}
