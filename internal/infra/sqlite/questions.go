package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"halloween-trivia/internal/domain"
)

// LoadQuestions returns the pool of category; the mixed category returns all.
func (s *Store) LoadQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, difficulty, question, correct_answer, alternative_answers_json, hint1, hint2, hint3, points
		 FROM questions WHERE ? = 'Mixto' OR category = ? ORDER BY id`,
		string(category), string(category))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q         domain.Question
			cat, diff string
			altsJSON  string
		)
		if err := rows.Scan(&q.ID, &cat, &diff, &q.Prompt, &q.CorrectAnswer, &altsJSON, &q.Hints[0], &q.Hints[1], &q.Hints[2], &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(altsJSON), &q.AlternativeAnswers); err != nil {
			return nil, fmt.Errorf("decode alternative answers of %s: %w", q.ID, err)
		}
		q.Category = domain.Category(cat)
		q.Difficulty = domain.Difficulty(diff)
		out = append(out, q)
	}
	return out, rows.Err()
}

// SaveQuestions upserts a question bank in one transaction.
func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (id, category, difficulty, question, correct_answer, alternative_answers_json, hint1, hint2, hint3, points)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			difficulty = excluded.difficulty,
			question = excluded.question,
			correct_answer = excluded.correct_answer,
			alternative_answers_json = excluded.alternative_answers_json,
			hint1 = excluded.hint1,
			hint2 = excluded.hint2,
			hint3 = excluded.hint3,
			points = excluded.points`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, q := range questions {
		alts := q.AlternativeAnswers
		if alts == nil {
			alts = []string{}
		}
		altsJSON, err := json.Marshal(alts)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, q.ID, string(q.Category), string(q.Difficulty), q.Prompt, q.CorrectAnswer,
			string(altsJSON), q.Hints[0], q.Hints[1], q.Hints[2], q.Points); err != nil {
			return 0, fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(questions), nil
}
