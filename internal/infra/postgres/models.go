package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"halloween-trivia/internal/domain"
)

type playerModel struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID             string    `bun:"id,pk,type:uuid"`
	Nickname       string    `bun:"nickname,notnull"`
	AvatarIcon     string    `bun:"avatar_icon,notnull"`
	TotalScore     int       `bun:"total_score,notnull"`
	GamesCompleted int       `bun:"games_completed,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func (m playerModel) toDomain() domain.Player {
	return domain.Player{
		ID:             m.ID,
		Nickname:       m.Nickname,
		AvatarIcon:     m.AvatarIcon,
		TotalScore:     m.TotalScore,
		GamesCompleted: m.GamesCompleted,
		CreatedAt:      m.CreatedAt,
	}
}

type sessionModel struct {
	bun.BaseModel `bun:"table:game_sessions,alias:s"`

	ID               string     `bun:"id,pk,type:uuid"`
	PlayerID         string     `bun:"player_id,type:uuid,notnull"`
	CurrentRoom      int        `bun:"current_room,notnull"`
	Score            int        `bun:"score,notnull"`
	HintsUsed        int        `bun:"hints_used,notnull"`
	TimeElapsed      int        `bun:"time_elapsed,notnull"`
	IsCompleted      bool       `bun:"is_completed,notnull"`
	SelectedCategory string     `bun:"selected_category,notnull"`
	StartedAt        time.Time  `bun:"started_at,notnull"`
	CompletedAt      *time.Time `bun:"completed_at"`
}

func (m sessionModel) toDomain() domain.GameSession {
	return domain.GameSession{
		ID:       m.ID,
		PlayerID: m.PlayerID,
		Progress: domain.Progress{
			CurrentRoom: m.CurrentRoom,
			Score:       m.Score,
			HintsUsed:   m.HintsUsed,
			TimeElapsed: m.TimeElapsed,
		},
		IsCompleted:      m.IsCompleted,
		SelectedCategory: domain.Category(m.SelectedCategory),
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}
}

type roomCompletionModel struct {
	bun.BaseModel `bun:"table:room_completions,alias:rc"`

	ID          string    `bun:"id,pk,type:uuid"`
	SessionID   string    `bun:"session_id,type:uuid,notnull"`
	RoomNumber  int       `bun:"room_number,notnull"`
	QuestionID  string    `bun:"question_id,notnull"`
	TimeTaken   int       `bun:"time_taken,notnull"`
	Attempts    int       `bun:"attempts,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

type settingsModel struct {
	bun.BaseModel `bun:"table:admin_settings,alias:a"`

	ID              string    `bun:"id,pk,type:uuid"`
	GameEnabled     bool      `bun:"game_enabled,notnull"`
	DifficultyLevel string    `bun:"difficulty_level,notnull"`
	MaxHints        int       `bun:"max_hints,notnull"`
	Announcement    string    `bun:"announcement,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
	UpdatedBy       string    `bun:"updated_by,notnull"`
}

func (m settingsModel) toDomain() domain.AdminSettings {
	return domain.AdminSettings{
		ID:              m.ID,
		GameEnabled:     m.GameEnabled,
		DifficultyLevel: m.DifficultyLevel,
		MaxHints:        m.MaxHints,
		Announcement:    m.Announcement,
		UpdatedAt:       m.UpdatedAt,
		UpdatedBy:       m.UpdatedBy,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID                 string   `bun:"id,pk"`
	Category           string   `bun:"category,notnull"`
	Difficulty         string   `bun:"difficulty,notnull"`
	Question           string   `bun:"question,notnull"`
	CorrectAnswer      string   `bun:"correct_answer,notnull"`
	AlternativeAnswers []string `bun:"alternative_answers,array"`
	Hint1              string   `bun:"hint1,notnull"`
	Hint2              string   `bun:"hint2,notnull"`
	Hint3              string   `bun:"hint3,notnull"`
	Points             int      `bun:"points,notnull"`
}

func newQuestionModel(q domain.Question) questionModel {
	alts := q.AlternativeAnswers
	if alts == nil {
		alts = []string{}
	}
	return questionModel{
		ID:                 q.ID,
		Category:           string(q.Category),
		Difficulty:         string(q.Difficulty),
		Question:           q.Prompt,
		CorrectAnswer:      q.CorrectAnswer,
		AlternativeAnswers: alts,
		Hint1:              q.Hints[0],
		Hint2:              q.Hints[1],
		Hint3:              q.Hints[2],
		Points:             q.Points,
	}
}

type leaderboardModel struct {
	bun.BaseModel `bun:"table:leaderboard,alias:lb"`

	PlayerID       string  `bun:"player_id"`
	Nickname       string  `bun:"nickname"`
	AvatarIcon     string  `bun:"avatar_icon"`
	TotalScore     int     `bun:"total_score"`
	GamesCompleted int     `bun:"games_completed"`
	BestTime       int     `bun:"best_time"`
	AverageScore   float64 `bun:"average_score"`
}
