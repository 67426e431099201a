package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"halloween-trivia/internal/domain"
)

// QuestionLoader reads question pools straight from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// ConnectPool opens a pgx pool on url, authenticating with key.
func ConnectPool(ctx context.Context, url, key string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}
	return pgxpool.ConnectConfig(ctx, cfg)
}

const selectQuestions = `
SELECT id, category, difficulty, question, correct_answer, alternative_answers, hint1, hint2, hint3, points
FROM questions
WHERE $1::text = 'Mixto' OR category = $1::text
ORDER BY id`

func (l *QuestionLoader) LoadQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, selectQuestions, string(category))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			cat, diff  string
			alternates []string
		)
		if err := rows.Scan(&q.ID, &cat, &diff, &q.Prompt, &q.CorrectAnswer, &alternates, &q.Hints[0], &q.Hints[1], &q.Hints[2], &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Category = domain.Category(cat)
		q.Difficulty = domain.Difficulty(diff)
		q.AlternativeAnswers = alternates
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}
