package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"halloween-trivia/internal/domain"
)

// LeaderboardSnapshot is one published state of the leaderboard.
type LeaderboardSnapshot struct {
	Entries   []LeaderboardRow `json:"entries"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// LeaderboardFeed pushes a fresh leaderboard to subscribers whenever players change.
type LeaderboardFeed struct {
	repo   LeaderboardRepository
	limit  int
	now    func() time.Time
	logger *slog.Logger

	mu          sync.Mutex
	latest      *LeaderboardSnapshot
	subscribers map[chan LeaderboardSnapshot]struct{}
}

func NewLeaderboardFeed(repo LeaderboardRepository, limit int, now func() time.Time, logger *slog.Logger) *LeaderboardFeed {
	return &LeaderboardFeed{
		repo:        repo,
		limit:       limit,
		now:         now,
		logger:      logger,
		subscribers: make(map[chan LeaderboardSnapshot]struct{}),
	}
}

// Subscribe returns a channel that first receives the current snapshot and
// then every refresh. The caller must invoke the returned cancel function.
func (f *LeaderboardFeed) Subscribe(ctx context.Context) (<-chan LeaderboardSnapshot, func(), error) {
	f.mu.Lock()
	latest := f.latest
	f.mu.Unlock()
	if latest == nil {
		snap, err := f.load(ctx)
		if err != nil {
			return nil, nil, err
		}
		latest = &snap
	}

	ch := make(chan LeaderboardSnapshot, 8)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	if f.latest == nil {
		f.latest = latest
	}
	ch <- *f.latest
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// Refresh reloads the leaderboard and broadcasts it.
func (f *LeaderboardFeed) Refresh(ctx context.Context) error {
	snap, err := f.load(ctx)
	if err != nil {
		f.logger.Error("refresh leaderboard", "err", err)
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = &snap
	for ch := range f.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return nil
}

// Run refreshes on every players change until ctx is done.
func (f *LeaderboardFeed) Run(ctx context.Context, notifier Notifier) error {
	changes, cancel, err := notifier.Subscribe(ctx, domain.TopicPlayers)
	if err != nil {
		return err
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			_ = f.Refresh(ctx)
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (f *LeaderboardFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *LeaderboardFeed) load(ctx context.Context) (LeaderboardSnapshot, error) {
	entries, err := f.repo.Leaderboard(ctx, f.limit)
	if err != nil {
		return LeaderboardSnapshot{}, err
	}
	return LeaderboardSnapshot{Entries: Rank(entries, ""), UpdatedAt: f.now()}, nil
}
