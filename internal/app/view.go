package app

import (
	"context"
	"errors"

	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
)

// View is what a client renders. Correct answers are never included.
type View struct {
	Screen        string                `json:"screen"`
	Loading       bool                  `json:"loading"`
	Blocked       bool                  `json:"blocked"`
	Announcement  string                `json:"announcement,omitempty"`
	Player        *PlayerView           `json:"player,omitempty"`
	Game          *PlayView             `json:"game,omitempty"`
	AdminUnlocked bool                  `json:"adminUnlocked"`
	Settings      *domain.AdminSettings `json:"settings,omitempty"`
	Notification  *Toast                `json:"notification,omitempty"`
}

type PlayerView struct {
	ID       string `json:"id,omitempty"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type PlayView struct {
	SessionID     string        `json:"sessionId"`
	Category      string        `json:"category"`
	CategoryEmoji string        `json:"categoryEmoji"`
	Room          int           `json:"room"`
	TotalRooms    int           `json:"totalRooms"`
	Score         int           `json:"score"`
	HintsUsed     int           `json:"hintsUsed"`
	HintsLeft     int           `json:"hintsLeft"`
	Elapsed       int           `json:"elapsed"`
	ElapsedLabel  string        `json:"elapsedLabel"`
	Submitting    bool          `json:"submitting"`
	Question      *QuestionView `json:"question,omitempty"`
	Hint          string        `json:"hint,omitempty"`
	Performance   string        `json:"performance,omitempty"`
}

type QuestionView struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Prompt     string `json:"question"`
	Points     int    `json:"points"`
}

// View projects the current state. The settings snapshot is loaded lazily;
// while it is unavailable the client sees a loading view.
func (g *Game) View(ctx context.Context) View {
	settings, err := g.svc.gate.Current(ctx)
	loading := errors.Is(err, domain.ErrSettingsUnavailable)

	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.state

	v := View{
		Screen:        s.Screen.String(),
		Loading:       loading,
		Blocked:       !loading && !settings.GameEnabled && s.Screen != game.ScreenAdmin,
		AdminUnlocked: s.AdminUnlocked,
	}
	if !loading {
		v.Announcement = settings.Announcement
	}
	if s.Nickname != "" {
		v.Player = &PlayerView{ID: s.PlayerID, Nickname: s.Nickname, Avatar: s.Avatar}
	}
	if s.SessionID != "" {
		v.Game = playView(s, settings.EffectiveMaxHints(), g.inFlight.Load())
	}
	if s.Screen == game.ScreenAdmin && s.AdminUnlocked && !loading {
		snapshot := settings
		v.Settings = &snapshot
	}
	if g.toast != nil {
		if g.svc.opts.Now().Before(g.toast.ExpiresAt) {
			toast := *g.toast
			v.Notification = &toast
		} else {
			g.toast = nil
		}
	}
	return v
}

func playView(s game.State, maxHints int, submitting bool) *PlayView {
	left := maxHints - s.HintsUsed
	if left < 0 {
		left = 0
	}
	pv := &PlayView{
		SessionID:     s.SessionID,
		Category:      string(s.Category),
		CategoryEmoji: s.Category.Emoji(),
		Room:          s.Room,
		TotalRooms:    game.RoomsPerGame,
		Score:         s.Score,
		HintsUsed:     s.HintsUsed,
		HintsLeft:     left,
		Elapsed:       s.Elapsed,
		ElapsedLabel:  game.FormatElapsed(s.Elapsed),
		Submitting:    submitting,
		Hint:          s.Hint,
	}
	if q, ok := s.CurrentQuestion(); ok && s.Playing() {
		pv.Question = &QuestionView{
			ID:         q.ID,
			Category:   string(q.Category),
			Difficulty: string(q.Difficulty),
			Prompt:     q.Prompt,
			Points:     q.Points,
		}
	}
	if s.Completed() {
		pv.Performance = game.PerformanceMessage(s.Score)
	}
	return pv
}
