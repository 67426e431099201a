package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
	"halloween-trivia/internal/infra/memory"
)

func finishGame(t *testing.T, f *fixture, clientID, nickname string) *app.Game {
	t.Helper()
	ctx := context.Background()
	g := f.svc.Game(clientID)
	if err := g.Start(ctx, app.StartRequest{Nickname: nickname, Category: string(domain.CategoryTerror)}); err != nil {
		t.Fatalf("start %s: %v", nickname, err)
	}
	for i := 0; i < game.RoomsPerGame; i++ {
		if _, err := g.Answer(ctx, currentAnswer(t, g)); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	return g
}

func TestLeaderboardFlagsCurrentPlayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, halloweenBank())
	finishGame(t, f, "c1", "Morticia")
	g := finishGame(t, f, "c2", "Gomez")
	_ = g.Restart()
	finishGame(t, f, "c2", "Gomez")

	rows, err := f.svc.Leaderboard(ctx, "c1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Nickname != "Gomez" || rows[0].TotalScore != 1400 || rows[0].Rank != 1 {
		t.Fatalf("expected Gomez first with 1400, got %+v", rows[0])
	}
	for _, r := range rows[1:] {
		if r.TotalScore > rows[0].TotalScore {
			t.Fatalf("top entry must have the maximum score")
		}
	}
	if rows[0].Current || !rows[1].Current {
		t.Fatalf("expected only Morticia flagged, got %+v", rows)
	}
	if rows[1].BestTimeLabel != "--:--" {
		t.Fatalf("expected placeholder label for zero best time, got %q", rows[1].BestTimeLabel)
	}
}

func TestRankLabelsBestTime(t *testing.T) {
	rows := app.Rank([]domain.LeaderboardEntry{{PlayerID: "p1", BestTime: 125}}, "p1")
	if rows[0].BestTimeLabel != "2:05" || !rows[0].Current || rows[0].Rank != 1 {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestLeaderboardFeedPushesOnPlayersChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, halloweenBank())
	feed := f.svc.Feed()

	updates, unsubscribe, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()
	initial := <-updates
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial.Entries)
	}

	go func() { _ = feed.Run(ctx, f.notifier) }()
	finishGame(t, f, "c1", "Morticia")

	// Run subscribes asynchronously; keep nudging until it has.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if len(snap.Entries) == 1 && snap.Entries[0].TotalScore == 700 {
				return
			}
		case <-time.After(20 * time.Millisecond):
			_ = f.notifier.Publish(ctx, domain.TopicPlayers)
		case <-deadline:
			t.Fatalf("expected leaderboard push")
		}
	}
}

// readyNotifier closes ready once a subscription is registered.
type readyNotifier struct {
	*memory.Notifier
	ready chan struct{}
	once  sync.Once
}

func (n *readyNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ch, cancel, err := n.Notifier.Subscribe(ctx, topic)
	n.once.Do(func() { close(n.ready) })
	return ch, cancel, err
}

func TestLeaderboardFeedPushesNewPlayer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, halloweenBank())
	feed := f.svc.Feed()

	updates, unsubscribe, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()
	if initial := <-updates; len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial.Entries)
	}

	notifier := &readyNotifier{Notifier: f.notifier, ready: make(chan struct{})}
	go func() { _ = feed.Run(ctx, notifier) }()
	<-notifier.ready

	startGame(t, f, "c1")
	select {
	case snap := <-updates:
		if len(snap.Entries) != 1 || snap.Entries[0].Nickname != "Morticia" || snap.Entries[0].TotalScore != 0 {
			t.Fatalf("expected the new player with zero totals, got %+v", snap.Entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a push for the new player")
	}
}

func TestReturningPlayerDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, halloweenBank())
	startGame(t, f, "c1")

	changes, cancel, err := f.notifier.Subscribe(ctx, domain.TopicPlayers)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	startGame(t, f, "c2")
	select {
	case <-changes:
		t.Fatalf("expected no players change for an existing nickname")
	default:
	}
}

func TestLeaderboardFeedDropsStaleSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, halloweenBank())
	feed := f.svc.Feed()

	updates, unsubscribe, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := feed.Refresh(ctx); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if feed.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", feed.Subscribers())
	}
	unsubscribe()
	unsubscribe()
	if feed.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
	n := 0
	for range updates {
		n++
	}
	if n == 0 || n > 8 {
		t.Fatalf("expected a bounded backlog, got %d", n)
	}
}
