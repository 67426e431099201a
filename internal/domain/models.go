package domain

import "time"

// Difficulty buckets a question for selection.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "facil"
	DifficultyMedium Difficulty = "medio"
	DifficultyHard   Difficulty = "dificil"
)

// Category labels a question pool. CategoryMixed matches every question.
type Category string

const (
	CategoryMixed       Category = "Mixto"
	CategoryTerror      Category = "Terror"
	CategoryMusic       Category = "Musica"
	CategoryHistory     Category = "Historia"
	CategoryScience     Category = "Ciencia"
	CategoryArt         Category = "Arte"
	CategoryGeography   Category = "Geografia"
	CategoryInformatics Category = "Informatica"
)

// CategoryInfo pairs a category with its display emoji.
type CategoryInfo struct {
	Name  Category `json:"name"`
	Emoji string   `json:"emoji"`
}

// Categories lists the selectable categories in display order.
var Categories = []CategoryInfo{
	{Name: CategoryMixed, Emoji: "🎲"},
	{Name: CategoryTerror, Emoji: "🎬"},
	{Name: CategoryMusic, Emoji: "🎵"},
	{Name: CategoryHistory, Emoji: "🏛️"},
	{Name: CategoryScience, Emoji: "🔬"},
	{Name: CategoryArt, Emoji: "🎨"},
	{Name: CategoryGeography, Emoji: "🌍"},
	{Name: CategoryInformatics, Emoji: "💻"},
}

// Valid reports whether c is one of the selectable categories.
func (c Category) Valid() bool {
	for _, info := range Categories {
		if info.Name == c {
			return true
		}
	}
	return false
}

// Emoji returns the display emoji for c, or a book for unknown labels.
func (c Category) Emoji() string {
	for _, info := range Categories {
		if info.Name == c {
			return info.Emoji
		}
	}
	return "📚"
}

// DefaultAvatar is used when a player does not pick one.
const DefaultAvatar = "👻"

// Avatars is the fixed glyph set a player can choose from.
var Avatars = []string{"👻", "🎃", "💀", "🧛", "🧟", "🕷️", "🦇", "🐺", "🔮", "⚰️"}

// ValidAvatar reports whether glyph belongs to Avatars.
func ValidAvatar(glyph string) bool {
	for _, a := range Avatars {
		if a == glyph {
			return true
		}
	}
	return false
}

// Question is one trivia prompt. Questions are read-only once loaded.
type Question struct {
	ID                 string     `json:"id" yaml:"id"`
	Category           Category   `json:"category" yaml:"category"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	Prompt             string     `json:"question" yaml:"question"`
	CorrectAnswer      string     `json:"correct_answer" yaml:"correct_answer"`
	AlternativeAnswers []string   `json:"alternative_answers" yaml:"alternative_answers"`
	Hints              [3]string  `json:"hints" yaml:"hints"`
	Points             int        `json:"points" yaml:"points"`
}

// Player is keyed by nickname; totals change only when a game completes.
type Player struct {
	ID             string    `json:"id"`
	Nickname       string    `json:"nickname"`
	AvatarIcon     string    `json:"avatar_icon"`
	TotalScore     int       `json:"total_score"`
	GamesCompleted int       `json:"games_completed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Progress holds the session columns rewritten on every session update.
type Progress struct {
	CurrentRoom int `json:"current_room"`
	Score       int `json:"score"`
	HintsUsed   int `json:"hints_used"`
	TimeElapsed int `json:"time_elapsed"`
}

// GameSession is one play-through by one player.
type GameSession struct {
	ID               string     `json:"id"`
	PlayerID         string     `json:"player_id"`
	Progress
	IsCompleted      bool       `json:"is_completed"`
	SelectedCategory Category   `json:"selected_category"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// RoomCompletion is the append-only audit record of a solved room.
type RoomCompletion struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	RoomNumber  int       `json:"room_number"`
	QuestionID  string    `json:"question_id"`
	TimeTaken   int       `json:"time_taken"`
	Attempts    int       `json:"attempts"`
	CompletedAt time.Time `json:"completed_at"`
}

// Admin difficulty labels. They are informational and do not drive selection.
const (
	LevelEasy   = "easy"
	LevelMedium = "medium"
	LevelHard   = "hard"
)

// MaxHintsLimit is the number of hint texts a question carries.
const MaxHintsLimit = 3

// AdminSettings is the singleton record controlling availability and limits.
type AdminSettings struct {
	ID              string    `json:"id"`
	GameEnabled     bool      `json:"gameEnabled"`
	DifficultyLevel string    `json:"difficultyLevel"`
	MaxHints        int       `json:"maxHints"`
	Announcement    string    `json:"announcement"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedBy       string    `json:"updatedBy"`
}

// EffectiveMaxHints clamps MaxHints to the hint texts a question can reveal.
func (s AdminSettings) EffectiveMaxHints() int {
	switch {
	case s.MaxHints < 0:
		return 0
	case s.MaxHints > MaxHintsLimit:
		return MaxHintsLimit
	}
	return s.MaxHints
}

// Validate checks the fields an administrator can edit.
func (s AdminSettings) Validate() error {
	switch s.DifficultyLevel {
	case LevelEasy, LevelMedium, LevelHard:
	default:
		return ErrInvalidSettings
	}
	if s.MaxHints < 0 || s.MaxHints > MaxHintsLimit {
		return ErrInvalidSettings
	}
	return nil
}

// LeaderboardEntry is a ranked, read-only projection of a player.
type LeaderboardEntry struct {
	PlayerID       string  `json:"player_id"`
	Nickname       string  `json:"nickname"`
	AvatarIcon     string  `json:"avatar_icon"`
	TotalScore     int     `json:"total_score"`
	GamesCompleted int     `json:"games_completed"`
	BestTime       int     `json:"best_time"`
	AverageScore   float64 `json:"average_score"`
}

// Change topics published when shared records are written.
const (
	TopicPlayers       = "players"
	TopicAdminSettings = "admin_settings"
)
