package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/infra/postgres/migrations"
)

// OpenDB connects bun to url, authenticating with key.
func OpenDB(ctx context.Context, url, key string) (*bun.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(url)}
	if key != "" {
		opts = append(opts, pgdriver.WithPassword(key))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies pending migrations and returns the applied group.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Migrate(ctx)
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Rollback(ctx)
}

// Store implements app.Store on Postgres through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) PlayerByNickname(ctx context.Context, nickname string) (domain.Player, error) {
	var m playerModel
	err := s.db.NewSelect().Model(&m).Where("nickname = ?", nickname).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("select player: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) PlayerByID(ctx context.Context, id string) (domain.Player, error) {
	var m playerModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("select player: %w", err)
	}
	return m.toDomain(), nil
}

// CreatePlayer inserts player, or returns the existing row when another
// client registered the same nickname first.
func (s *Store) CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	m := playerModel{
		ID:         player.ID,
		Nickname:   player.Nickname,
		AvatarIcon: player.AvatarIcon,
		CreatedAt:  player.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).On("CONFLICT (nickname) DO NOTHING").Exec(ctx); err != nil {
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}
	return s.PlayerByNickname(ctx, player.Nickname)
}

func (s *Store) UpdatePlayerTotals(ctx context.Context, id string, totalScore, gamesCompleted int) error {
	res, err := s.db.NewUpdate().Model((*playerModel)(nil)).
		Set("total_score = ?", totalScore).
		Set("games_completed = ?", gamesCompleted).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update player totals: %w", err)
	}
	return requireRow(res, domain.ErrPlayerNotFound)
}

func (s *Store) CreateSession(ctx context.Context, session domain.GameSession) (domain.GameSession, error) {
	m := sessionModel{
		ID:               session.ID,
		PlayerID:         session.PlayerID,
		CurrentRoom:      session.CurrentRoom,
		Score:            session.Score,
		HintsUsed:        session.HintsUsed,
		TimeElapsed:      session.TimeElapsed,
		SelectedCategory: string(session.SelectedCategory),
		StartedAt:        session.StartedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.GameSession{}, fmt.Errorf("insert session: %w", err)
	}
	return m.toDomain(), nil
}

// Session loads one session by id.
func (s *Store) Session(ctx context.Context, id string) (domain.GameSession, error) {
	var m sessionModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("select session: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) SaveProgress(ctx context.Context, sessionID string, progress domain.Progress) error {
	res, err := s.progressUpdate(sessionID, progress).Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound)
}

func (s *Store) CompleteSession(ctx context.Context, sessionID string, progress domain.Progress, completedAt time.Time) error {
	res, err := s.progressUpdate(sessionID, progress).
		Set("is_completed = ?", true).
		Set("completed_at = ?", completedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound)
}

func (s *Store) progressUpdate(sessionID string, p domain.Progress) *bun.UpdateQuery {
	return s.db.NewUpdate().Model((*sessionModel)(nil)).
		Set("current_room = ?", p.CurrentRoom).
		Set("score = ?", p.Score).
		Set("hints_used = ?", p.HintsUsed).
		Set("time_elapsed = ?", p.TimeElapsed).
		Where("id = ?", sessionID)
}

func (s *Store) RecordRoomCompletion(ctx context.Context, c domain.RoomCompletion) error {
	m := roomCompletionModel{
		ID:          c.ID,
		SessionID:   c.SessionID,
		RoomNumber:  c.RoomNumber,
		QuestionID:  c.QuestionID,
		TimeTaken:   c.TimeTaken,
		Attempts:    c.Attempts,
		CompletedAt: c.CompletedAt,
	}
	_, err := s.db.NewInsert().Model(&m).On("CONFLICT (session_id, room_number) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert room completion: %w", err)
	}
	return nil
}

func (s *Store) LoadSettings(ctx context.Context) (domain.AdminSettings, error) {
	var m settingsModel
	err := s.db.NewSelect().Model(&m).OrderExpr("updated_at DESC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminSettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.AdminSettings{}, fmt.Errorf("select admin settings: %w", err)
	}
	return m.toDomain(), nil
}

// SaveSettings rewrites the singleton row, creating it if the table is empty.
func (s *Store) SaveSettings(ctx context.Context, settings domain.AdminSettings) error {
	if settings.ID == "" {
		current, err := s.LoadSettings(ctx)
		switch {
		case err == nil:
			settings.ID = current.ID
		case !errors.Is(err, domain.ErrSettingsNotFound):
			return err
		}
	}
	m := settingsModel{
		ID:              settings.ID,
		GameEnabled:     settings.GameEnabled,
		DifficultyLevel: settings.DifficultyLevel,
		MaxHints:        settings.MaxHints,
		Announcement:    settings.Announcement,
		UpdatedAt:       settings.UpdatedAt,
		UpdatedBy:       settings.UpdatedBy,
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
		if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
			return fmt.Errorf("insert admin settings: %w", err)
		}
		return nil
	}
	res, err := s.db.NewUpdate().Model(&m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update admin settings: %w", err)
	}
	return requireRow(res, domain.ErrSettingsNotFound)
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardModel
	q := s.db.NewSelect().Model(&rows).OrderExpr("total_score DESC, nickname ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:       r.PlayerID,
			Nickname:       r.Nickname,
			AvatarIcon:     r.AvatarIcon,
			TotalScore:     r.TotalScore,
			GamesCompleted: r.GamesCompleted,
			BestTime:       r.BestTime,
			AverageScore:   r.AverageScore,
		})
	}
	return entries, nil
}

// SaveQuestions upserts a question bank.
func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	models := make([]questionModel, 0, len(questions))
	for _, q := range questions {
		models = append(models, newQuestionModel(q))
	}
	_, err := s.db.NewInsert().Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("category = EXCLUDED.category").
		Set("difficulty = EXCLUDED.difficulty").
		Set("question = EXCLUDED.question").
		Set("correct_answer = EXCLUDED.correct_answer").
		Set("alternative_answers = EXCLUDED.alternative_answers").
		Set("hint1 = EXCLUDED.hint1").
		Set("hint2 = EXCLUDED.hint2").
		Set("hint3 = EXCLUDED.hint3").
		Set("points = EXCLUDED.points").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	return len(models), nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
