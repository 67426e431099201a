package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
	"halloween-trivia/internal/infra/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "trivia.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenSeedsSettingsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trivia.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if !first.GameEnabled || first.MaxHints != 3 || first.DifficultyLevel != domain.LevelMedium {
		t.Fatalf("unexpected defaults %+v", first)
	}
	_ = store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	second, _ := reopened.LoadSettings(ctx)
	if second.ID != first.ID {
		t.Fatalf("expected singleton preserved across opens, got %s and %s", first.ID, second.ID)
	}
}

func TestSaveAndLoadQuestions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bank := []domain.Question{
		{ID: "t1", Category: domain.CategoryTerror, Difficulty: domain.DifficultyEasy, Prompt: "¿Vampiro de Stoker?", CorrectAnswer: "Dracula", AlternativeAnswers: []string{"Count Dracula"}, Hints: [3]string{"a", "b", "c"}, Points: 100},
		{ID: "m1", Category: domain.CategoryMusic, Difficulty: domain.DifficultyMedium, Prompt: "¿Thriller?", CorrectAnswer: "Michael Jackson", Points: 150},
	}
	if n, err := store.SaveQuestions(ctx, bank); err != nil || n != 2 {
		t.Fatalf("save questions: %d %v", n, err)
	}
	bank[0].Points = 120
	if _, err := store.SaveQuestions(ctx, bank[:1]); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	terror, err := store.LoadQuestions(ctx, domain.CategoryTerror)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(terror) != 1 || terror[0].Points != 120 || terror[0].AlternativeAnswers[0] != "Count Dracula" || terror[0].Hints[2] != "c" {
		t.Fatalf("unexpected terror pool %+v", terror)
	}
	all, _ := store.LoadQuestions(ctx, domain.CategoryMixed)
	if len(all) != 2 {
		t.Fatalf("expected 2 questions for mixed, got %d", len(all))
	}
	if all[1].AlternativeAnswers == nil {
		t.Fatalf("expected empty alternatives decoded, got nil")
	}
}

func TestLookupsReportNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.PlayerByNickname(ctx, "nadie"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
	if err := store.SaveProgress(ctx, "missing", domain.Progress{CurrentRoom: 2}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if err := store.UpdatePlayerTotals(ctx, "missing", 1, 1); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestFullGameOnSQLite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.SaveQuestions(ctx, pumpkinBank()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	registry := memory.NewGameRegistry()
	svc := app.NewService(store, memory.NewQuestionRepository(store, time.Minute), registry, memory.NewNotifier(), app.Options{
		Ticks: func() (<-chan time.Time, func()) { return nil, func() {} },
	})
	g := svc.Game("c1")
	defer g.Close()

	if err := g.Start(ctx, app.StartRequest{Nickname: "Jack", Avatar: "🎃"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := g.Hint(ctx); err != nil {
		t.Fatalf("hint: %v", err)
	}
	if outcome, _ := g.Answer(ctx, "calabaza"); outcome != app.AnswerIncorrect {
		t.Fatalf("expected incorrect, got %s", outcome)
	}
	for i := 0; i < game.RoomsPerGame; i++ {
		q, _ := g.State().CurrentQuestion()
		if _, err := g.Answer(ctx, q.CorrectAnswer); err != nil {
			t.Fatalf("answer room %d: %v", i+1, err)
		}
	}

	s := g.State()
	session, err := store.Session(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if !session.IsCompleted || session.CurrentRoom != game.CompletedRoom || session.Score != 700 || session.HintsUsed != 1 || session.CompletedAt == nil {
		t.Fatalf("unexpected persisted session %+v", session)
	}
	if n, _ := store.CompletionCount(ctx, s.SessionID); n != game.RoomsPerGame {
		t.Fatalf("expected 5 completions, got %d", n)
	}

	rows, err := svc.Leaderboard(ctx, "c1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalScore != 700 || rows[0].GamesCompleted != 1 || rows[0].AverageScore != 700 || !rows[0].Current {
		t.Fatalf("unexpected leaderboard %+v", rows)
	}

	settings, _ := store.LoadSettings(ctx)
	settings.ID = ""
	settings.GameEnabled = false
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if got, _ := store.LoadSettings(ctx); got.GameEnabled {
		t.Fatalf("expected game disabled")
	}
}

func pumpkinBank() []domain.Question {
	return []domain.Question{
		{ID: "e1", Category: domain.CategoryTerror, Difficulty: domain.DifficultyEasy, Prompt: "e1", CorrectAnswer: "uno", Hints: [3]string{"h1", "h2", "h3"}, Points: 100},
		{ID: "e2", Category: domain.CategoryMusic, Difficulty: domain.DifficultyEasy, Prompt: "e2", CorrectAnswer: "dos", Hints: [3]string{"h1", "h2", "h3"}, Points: 100},
		{ID: "m1", Category: domain.CategoryArt, Difficulty: domain.DifficultyMedium, Prompt: "m1", CorrectAnswer: "tres", Hints: [3]string{"h1", "h2", "h3"}, Points: 150},
		{ID: "m2", Category: domain.CategoryScience, Difficulty: domain.DifficultyMedium, Prompt: "m2", CorrectAnswer: "cuatro", Hints: [3]string{"h1", "h2", "h3"}, Points: 150},
		{ID: "h1", Category: domain.CategoryHistory, Difficulty: domain.DifficultyHard, Prompt: "h1", CorrectAnswer: "cinco", Hints: [3]string{"h1", "h2", "h3"}, Points: 200},
	}
}
