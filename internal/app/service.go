package app

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
)

const (
	defaultLeaderboardLimit = 20
	defaultNotificationTTL  = 3 * time.Second
	defaultUpdaterName      = "DAW Admin"
)

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	AdminPassword    string
	UpdaterName      string
	LeaderboardLimit int
	NotificationTTL  time.Duration
	ClientTTL        time.Duration

	Logger *slog.Logger
	// Ticks drives the elapsed-time counter of every game.
	Ticks game.TickSource
	Now   func() time.Time
	NewID func() string
	Rand  *rand.Rand
}

// Service contains the trivia use cases shared by every client.
type Service struct {
	store     Store
	questions QuestionRepository
	games     GameRepository
	notifier  Notifier
	gate      *SettingsGate
	feed      *LeaderboardFeed
	opts      Options
	logger    *slog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewService(store Store, questions QuestionRepository, games GameRepository, notifier Notifier, opts Options) *Service {
	if opts.UpdaterName == "" {
		opts.UpdaterName = defaultUpdaterName
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = defaultLeaderboardLimit
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaultNotificationTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Ticks == nil {
		opts.Ticks = game.SecondTicks
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		store:     store,
		questions: questions,
		games:     games,
		notifier:  notifier,
		gate:      NewSettingsGate(store, opts.AdminPassword, opts.Logger),
		feed:      NewLeaderboardFeed(store, opts.LeaderboardLimit, opts.Now, opts.Logger),
		opts:      opts,
		logger:    opts.Logger,
		rnd:       rnd,
	}
}

// Gate returns the shared admin settings gate.
func (s *Service) Gate() *SettingsGate {
	return s.gate
}

// Feed returns the live leaderboard feed.
func (s *Service) Feed() *LeaderboardFeed {
	return s.feed
}

// Game returns the controller of clientID, creating it on first use.
func (s *Service) Game(clientID string) *Game {
	return s.games.GetOrCreate(clientID, s.opts.Now(), s.newGame)
}

// LiveClients counts the clients the game registry tracks.
func (s *Service) LiveClients(ctx context.Context) (int, error) {
	return s.games.Live(ctx)
}

// Lookup returns the controller of clientID without creating one.
func (s *Service) Lookup(clientID string) (*Game, bool) {
	return s.games.Get(clientID)
}

func (s *Service) newGame(clientID string) *Game {
	return newGame(clientID, s)
}

// Catalog lists what a player can pick on the welcome screen.
type Catalog struct {
	Categories []domain.CategoryInfo `json:"categories"`
	Avatars    []string              `json:"avatars"`
}

func (s *Service) Catalog() Catalog {
	return Catalog{Categories: domain.Categories, Avatars: domain.Avatars}
}

// LeaderboardRow is a ranked entry flagged for the requesting client.
type LeaderboardRow struct {
	Rank int `json:"rank"`
	domain.LeaderboardEntry
	BestTimeLabel string `json:"best_time_label"`
	Current       bool   `json:"current"`
}

// Leaderboard returns the top entries, marking the player of clientID.
func (s *Service) Leaderboard(ctx context.Context, clientID string) ([]LeaderboardRow, error) {
	entries, err := s.store.Leaderboard(ctx, s.opts.LeaderboardLimit)
	if err != nil {
		s.logger.Error("load leaderboard", "client", clientID, "err", err)
		return nil, err
	}
	playerID := ""
	if g, ok := s.games.Get(clientID); ok {
		playerID = g.snapshot().PlayerID
	}
	return Rank(entries, playerID), nil
}

// Rank numbers entries in order and flags playerID.
func Rank(entries []domain.LeaderboardEntry, playerID string) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		label := "--:--"
		if e.BestTime > 0 {
			label = game.FormatElapsed(e.BestTime)
		}
		rows = append(rows, LeaderboardRow{
			Rank:             i + 1,
			LeaderboardEntry: e,
			BestTimeLabel:    label,
			Current:          playerID != "" && e.PlayerID == playerID,
		})
	}
	return rows
}

// ReapIdle drops clients not seen within the configured client TTL.
func (s *Service) ReapIdle() int {
	if s.opts.ClientTTL <= 0 {
		return 0
	}
	return s.games.DeleteIdle(s.opts.Now().Add(-s.opts.ClientTTL))
}

// RunReaper reaps idle clients every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.ReapIdle(); n > 0 {
				s.logger.Debug("reaped idle clients", "count", n)
			}
		}
	}
}

func (s *Service) selectQuestions(pool []domain.Question) ([]domain.Question, error) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return game.SelectQuestions(pool, s.rnd)
}

func (s *Service) publish(ctx context.Context, topic string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, topic); err != nil {
		s.logger.Warn("publish change", "topic", topic, "err", err)
	}
}
