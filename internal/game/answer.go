package game

import (
	"strings"

	"halloween-trivia/internal/domain"
)

// NormalizeAnswer trims surrounding whitespace and case-folds s.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchAnswer reports whether submitted equals the canonical answer of q or
// one of its alternates after normalization.
func MatchAnswer(submitted string, q domain.Question) bool {
	got := NormalizeAnswer(submitted)
	if got == "" {
		return false
	}
	if got == NormalizeAnswer(q.CorrectAnswer) {
		return true
	}
	for _, alt := range q.AlternativeAnswers {
		if got == NormalizeAnswer(alt) {
			return true
		}
	}
	return false
}
