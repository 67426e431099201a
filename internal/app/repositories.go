package app

import (
	"context"
	"time"

	"halloween-trivia/internal/domain"
)

// QuestionRepository loads the question pool of a category (from cache/backing store).
// domain.CategoryMixed returns every question.
type QuestionRepository interface {
	Questions(ctx context.Context, category domain.Category) ([]domain.Question, error)
}

// PlayerRepository persists players keyed by nickname.
type PlayerRepository interface {
	PlayerByNickname(ctx context.Context, nickname string) (domain.Player, error)
	PlayerByID(ctx context.Context, id string) (domain.Player, error)
	CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error)
	UpdatePlayerTotals(ctx context.Context, id string, totalScore, gamesCompleted int) error
}

// SessionRepository persists game sessions and their room completions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.GameSession) (domain.GameSession, error)
	SaveProgress(ctx context.Context, sessionID string, progress domain.Progress) error
	CompleteSession(ctx context.Context, sessionID string, progress domain.Progress, completedAt time.Time) error
	// RecordRoomCompletion stores at most one record per (session, room).
	RecordRoomCompletion(ctx context.Context, completion domain.RoomCompletion) error
}

// SettingsRepository reads and writes the admin settings singleton.
type SettingsRepository interface {
	LoadSettings(ctx context.Context) (domain.AdminSettings, error)
	SaveSettings(ctx context.Context, settings domain.AdminSettings) error
}

// LeaderboardRepository reads the ranked leaderboard view.
type LeaderboardRepository interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Store is the full data store surface used by the service.
type Store interface {
	PlayerRepository
	SessionRepository
	SettingsRepository
	LeaderboardRepository
}

// GameRepository abstracts where per-client game controllers live (in-memory, Redis, etc).
type GameRepository interface {
	// GetOrCreate touches the controller at now before releasing it.
	GetOrCreate(clientID string, now time.Time, create func(clientID string) *Game) *Game
	Get(clientID string) (*Game, bool)
	// DeleteIdle closes and drops controllers not seen since cutoff.
	DeleteIdle(cutoff time.Time) int
	Live(ctx context.Context) (int, error)
}

// Notifier delivers change notifications for shared records.
// The caller must invoke the returned cancel function to avoid leaks.
type Notifier interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}
