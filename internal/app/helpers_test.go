package app_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/infra/memory"
)

const testPassword = "calabaza"

type fixture struct {
	svc      *app.Service
	store    *memory.Store
	registry *memory.GameRegistry
	notifier *memory.Notifier

	clockMu sync.Mutex
	now     time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.clockMu.Lock()
	f.now = f.now.Add(d)
	f.clockMu.Unlock()
}

func newFixture(t *testing.T, bank []domain.Question) *fixture {
	t.Helper()
	return newFixtureWithStore(t, bank, func(s *memory.Store) app.Store { return s })
}

// newFixtureWithStore builds a service over a memory store that tests can wrap.
func newFixtureWithStore(t *testing.T, bank []domain.Question, wrap func(*memory.Store) app.Store) *fixture {
	t.Helper()
	settings := memory.DefaultSettings()
	f := &fixture{
		store:    memory.NewStore(&settings),
		registry: memory.NewGameRegistry(),
		notifier: memory.NewNotifier(),
		now:      time.Date(2024, 10, 31, 21, 0, 0, 0, time.UTC),
	}
	var seq atomic.Int64
	f.svc = app.NewService(wrap(f.store), memory.NewQuestionRepository(memory.NewStaticQuestionLoader(bank), time.Minute), f.registry, f.notifier, app.Options{
		AdminPassword: testPassword,
		Ticks:         neverTicks,
		Now: func() time.Time {
			f.clockMu.Lock()
			defer f.clockMu.Unlock()
			return f.now
		},
		NewID: func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
		Rand:  rand.New(rand.NewSource(7)),
	})
	t.Cleanup(func() { f.registry.DeleteIdle(time.Now().Add(100 * 365 * 24 * time.Hour)) })
	return f
}

func neverTicks() (<-chan time.Time, func()) {
	return nil, func() {}
}

// halloweenBank has enough questions for every category used in tests.
func halloweenBank() []domain.Question {
	points := map[domain.Difficulty]int{
		domain.DifficultyEasy:   100,
		domain.DifficultyMedium: 150,
		domain.DifficultyHard:   200,
	}
	var bank []domain.Question
	add := func(cat domain.Category, diff domain.Difficulty, n int) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%s-%d", cat, diff, i)
			bank = append(bank, domain.Question{
				ID:                 id,
				Category:           cat,
				Difficulty:         diff,
				Prompt:             "Pregunta " + id,
				CorrectAnswer:      "Respuesta " + id,
				AlternativeAnswers: []string{"alt " + id},
				Hints:              [3]string{id + " pista 1", id + " pista 2", id + " pista 3"},
				Points:             points[diff],
			})
		}
	}
	add(domain.CategoryTerror, domain.DifficultyEasy, 3)
	add(domain.CategoryTerror, domain.DifficultyMedium, 3)
	add(domain.CategoryTerror, domain.DifficultyHard, 2)
	add(domain.CategoryMusic, domain.DifficultyEasy, 1)
	return bank
}

func startGame(t *testing.T, f *fixture, clientID string) *app.Game {
	t.Helper()
	g := f.svc.Game(clientID)
	if err := g.Start(context.Background(), app.StartRequest{Nickname: "Morticia", Avatar: "🧛", Category: string(domain.CategoryTerror)}); err != nil {
		t.Fatalf("start: %v", err)
	}
	return g
}

func currentAnswer(t *testing.T, g *app.Game) string {
	t.Helper()
	q, ok := g.State().CurrentQuestion()
	if !ok {
		t.Fatalf("expected a current question, state %+v", g.State())
	}
	return q.CorrectAnswer
}

// countingStore counts every write that reaches the store.
type countingStore struct {
	app.Store
	writes atomic.Int64
}

func (s *countingStore) CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	s.writes.Add(1)
	return s.Store.CreatePlayer(ctx, p)
}

func (s *countingStore) UpdatePlayerTotals(ctx context.Context, id string, total, games int) error {
	s.writes.Add(1)
	return s.Store.UpdatePlayerTotals(ctx, id, total, games)
}

func (s *countingStore) CreateSession(ctx context.Context, gs domain.GameSession) (domain.GameSession, error) {
	s.writes.Add(1)
	return s.Store.CreateSession(ctx, gs)
}

func (s *countingStore) SaveProgress(ctx context.Context, id string, p domain.Progress) error {
	s.writes.Add(1)
	return s.Store.SaveProgress(ctx, id, p)
}

func (s *countingStore) CompleteSession(ctx context.Context, id string, p domain.Progress, at time.Time) error {
	s.writes.Add(1)
	return s.Store.CompleteSession(ctx, id, p, at)
}

func (s *countingStore) RecordRoomCompletion(ctx context.Context, c domain.RoomCompletion) error {
	s.writes.Add(1)
	return s.Store.RecordRoomCompletion(ctx, c)
}

// blockingStore holds RecordRoomCompletion until release is closed.
type blockingStore struct {
	app.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) RecordRoomCompletion(ctx context.Context, c domain.RoomCompletion) error {
	s.entered <- struct{}{}
	<-s.release
	return s.Store.RecordRoomCompletion(ctx, c)
}

// failingStore fails every session write.
type failingStore struct {
	app.Store
	err error
}

func (s *failingStore) CreateSession(context.Context, domain.GameSession) (domain.GameSession, error) {
	return domain.GameSession{}, s.err
}
