package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"halloween-trivia/internal/domain"
)

// Store implements app.Store and the question loader on a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema and the
// admin settings row exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "trivia.db"
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	if err := store.seedSettings(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seedSettings(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_settings (id, game_enabled, difficulty_level, max_hints, announcement, updated_at_unix, updated_by)
		SELECT ?, 1, 'medium', 3, '', ?, 'DAW Admin'
		WHERE NOT EXISTS (SELECT 1 FROM admin_settings)`,
		uuid.NewString(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("seed admin settings: %w", err)
	}
	return nil
}

const playerColumns = `id, nickname, avatar_icon, total_score, games_completed, created_at_unix`

func scanPlayer(row *sql.Row) (domain.Player, error) {
	var (
		p       domain.Player
		created int64
	)
	err := row.Scan(&p.ID, &p.Nickname, &p.AvatarIcon, &p.TotalScore, &p.GamesCompleted, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("select player: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	return p, nil
}

func (s *Store) PlayerByNickname(ctx context.Context, nickname string) (domain.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE nickname = ?`, nickname))
}

func (s *Store) PlayerByID(ctx context.Context, id string) (domain.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
}

func (s *Store) CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, nickname, avatar_icon, total_score, games_completed, created_at_unix)
		 VALUES (?, ?, ?, 0, 0, ?) ON CONFLICT (nickname) DO NOTHING`,
		p.ID, p.Nickname, p.AvatarIcon, p.CreatedAt.Unix())
	if err != nil {
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}
	return s.PlayerByNickname(ctx, p.Nickname)
}

func (s *Store) UpdatePlayerTotals(ctx context.Context, id string, totalScore, gamesCompleted int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET total_score = ?, games_completed = ? WHERE id = ?`,
		totalScore, gamesCompleted, id)
	if err != nil {
		return fmt.Errorf("update player totals: %w", err)
	}
	return requireRow(res, domain.ErrPlayerNotFound)
}

func (s *Store) CreateSession(ctx context.Context, gs domain.GameSession) (domain.GameSession, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, player_id, current_room, score, hints_used, time_elapsed, is_completed, selected_category, started_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		gs.ID, gs.PlayerID, gs.CurrentRoom, gs.Score, gs.HintsUsed, gs.TimeElapsed, string(gs.SelectedCategory), gs.StartedAt.Unix())
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("insert session: %w", err)
	}
	return gs, nil
}

// Session loads one session by id.
func (s *Store) Session(ctx context.Context, id string) (domain.GameSession, error) {
	var (
		gs        domain.GameSession
		completed int
		category  string
		started   int64
		finished  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, player_id, current_room, score, hints_used, time_elapsed, is_completed, selected_category, started_at_unix, completed_at_unix
		 FROM game_sessions WHERE id = ?`, id).
		Scan(&gs.ID, &gs.PlayerID, &gs.CurrentRoom, &gs.Score, &gs.HintsUsed, &gs.TimeElapsed, &completed, &category, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("select session: %w", err)
	}
	gs.IsCompleted = completed == 1
	gs.SelectedCategory = domain.Category(category)
	gs.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		at := time.Unix(finished.Int64, 0).UTC()
		gs.CompletedAt = &at
	}
	return gs, nil
}

func (s *Store) SaveProgress(ctx context.Context, sessionID string, p domain.Progress) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET current_room = ?, score = ?, hints_used = ?, time_elapsed = ? WHERE id = ?`,
		p.CurrentRoom, p.Score, p.HintsUsed, p.TimeElapsed, sessionID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound)
}

func (s *Store) CompleteSession(ctx context.Context, sessionID string, p domain.Progress, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions
		 SET current_room = ?, score = ?, hints_used = ?, time_elapsed = ?, is_completed = 1, completed_at_unix = ?
		 WHERE id = ?`,
		p.CurrentRoom, p.Score, p.HintsUsed, p.TimeElapsed, completedAt.Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return requireRow(res, domain.ErrSessionNotFound)
}

func (s *Store) RecordRoomCompletion(ctx context.Context, c domain.RoomCompletion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_completions (id, session_id, room_number, question_id, time_taken, attempts, completed_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (session_id, room_number) DO NOTHING`,
		c.ID, c.SessionID, c.RoomNumber, c.QuestionID, c.TimeTaken, c.Attempts, c.CompletedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert room completion: %w", err)
	}
	return nil
}

// CompletionCount reports how many rooms of a session are recorded.
func (s *Store) CompletionCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_completions WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func (s *Store) LoadSettings(ctx context.Context) (domain.AdminSettings, error) {
	var (
		a       domain.AdminSettings
		enabled int
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, game_enabled, difficulty_level, max_hints, announcement, updated_at_unix, updated_by
		 FROM admin_settings ORDER BY updated_at_unix DESC LIMIT 1`).
		Scan(&a.ID, &enabled, &a.DifficultyLevel, &a.MaxHints, &a.Announcement, &updated, &a.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminSettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.AdminSettings{}, fmt.Errorf("select admin settings: %w", err)
	}
	a.GameEnabled = enabled == 1
	a.UpdatedAt = time.Unix(updated, 0).UTC()
	return a, nil
}

func (s *Store) SaveSettings(ctx context.Context, a domain.AdminSettings) error {
	if a.ID == "" {
		current, err := s.LoadSettings(ctx)
		if err != nil {
			return err
		}
		a.ID = current.ID
	}
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE admin_settings
		 SET game_enabled = ?, difficulty_level = ?, max_hints = ?, announcement = ?, updated_at_unix = ?, updated_by = ?
		 WHERE id = ?`,
		boolInt(a.GameEnabled), a.DifficultyLevel, a.MaxHints, a.Announcement, updated.Unix(), a.UpdatedBy, a.ID)
	if err != nil {
		return fmt.Errorf("update admin settings: %w", err)
	}
	return requireRow(res, domain.ErrSettingsNotFound)
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, nickname, avatar_icon, total_score, games_completed, best_time, average_score
		 FROM leaderboard ORDER BY total_score DESC, nickname ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Nickname, &e.AvatarIcon, &e.TotalScore, &e.GamesCompleted, &e.BestTime, &e.AverageScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
