package sqlite

import "context"

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			nickname TEXT NOT NULL UNIQUE,
			avatar_icon TEXT NOT NULL DEFAULT '👻',
			total_score INTEGER NOT NULL DEFAULT 0,
			games_completed INTEGER NOT NULL DEFAULT 0,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL CHECK (difficulty IN ('facil', 'medio', 'dificil')),
			question TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			alternative_answers_json TEXT NOT NULL DEFAULT '[]',
			hint1 TEXT NOT NULL DEFAULT '',
			hint2 TEXT NOT NULL DEFAULT '',
			hint3 TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 100
		);`,
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			current_room INTEGER NOT NULL DEFAULT 1 CHECK (current_room BETWEEN 1 AND 6),
			score INTEGER NOT NULL DEFAULT 0,
			hints_used INTEGER NOT NULL DEFAULT 0,
			time_elapsed INTEGER NOT NULL DEFAULT 0,
			is_completed INTEGER NOT NULL DEFAULT 0,
			selected_category TEXT NOT NULL DEFAULT 'Mixto',
			started_at_unix INTEGER NOT NULL,
			completed_at_unix INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS room_completions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
			room_number INTEGER NOT NULL CHECK (room_number BETWEEN 1 AND 5),
			question_id TEXT NOT NULL,
			time_taken INTEGER NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL DEFAULT 1,
			completed_at_unix INTEGER NOT NULL,
			UNIQUE (session_id, room_number)
		);`,
		`CREATE TABLE IF NOT EXISTS admin_settings (
			id TEXT PRIMARY KEY,
			game_enabled INTEGER NOT NULL DEFAULT 1,
			difficulty_level TEXT NOT NULL DEFAULT 'medium',
			max_hints INTEGER NOT NULL DEFAULT 3 CHECK (max_hints BETWEEN 0 AND 3),
			announcement TEXT NOT NULL DEFAULT '',
			updated_at_unix INTEGER NOT NULL,
			updated_by TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_player ON game_sessions(player_id);`,
		`CREATE VIEW IF NOT EXISTS leaderboard AS
			SELECT
				p.id AS player_id,
				p.nickname AS nickname,
				p.avatar_icon AS avatar_icon,
				p.total_score AS total_score,
				p.games_completed AS games_completed,
				COALESCE(MIN(CASE WHEN s.is_completed = 1 THEN s.time_elapsed END), 0) AS best_time,
				COALESCE(AVG(CASE WHEN s.is_completed = 1 THEN s.score END), 0.0) AS average_score
			FROM players p
			LEFT JOIN game_sessions s ON s.player_id = p.id
			GROUP BY p.id;`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
