package game

import (
	"fmt"

	"halloween-trivia/internal/domain"
)

// Screen identifies which of the mutually exclusive views a client is on.
type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenPlaying
	ScreenVictory
	ScreenLeaderboard
	ScreenAdmin
)

func (s Screen) String() string {
	switch s {
	case ScreenWelcome:
		return "welcome"
	case ScreenPlaying:
		return "playing"
	case ScreenVictory:
		return "victory"
	case ScreenLeaderboard:
		return "leaderboard"
	case ScreenAdmin:
		return "admin"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// CompletedRoom is the room index of a finished session.
const CompletedRoom = RoomsPerGame + 1

// State is a snapshot of where a client is. Transitions are value methods
// that return a new snapshot and never modify the receiver.
type State struct {
	Screen Screen
	// Return is the screen a side view goes back to when closed.
	Return Screen

	PlayerID string
	Nickname string
	Avatar   string

	SessionID string
	Category  domain.Category
	Questions []domain.Question

	Room      int
	Score     int
	HintsUsed int
	Elapsed   int

	// RoomStartedAt is the elapsed second at which the current room opened.
	RoomStartedAt int
	// Attempts counts wrong answers in the current room.
	Attempts int
	// Hint is the clue revealed in the current room, if any.
	Hint string

	AdminUnlocked bool
}

// NewState is the state of a client that has not played yet.
func NewState() State {
	return State{Screen: ScreenWelcome, Return: ScreenWelcome, Room: 1, Avatar: domain.DefaultAvatar}
}

// Start carries what a new play-through needs.
type Start struct {
	PlayerID  string
	Nickname  string
	Avatar    string
	SessionID string
	Category  domain.Category
	Questions []domain.Question
}

// Begin enters the playing screen with a fresh session.
func (s State) Begin(st Start) (State, error) {
	if s.Screen != ScreenWelcome {
		return s, domain.ErrInvalidTransition
	}
	if len(st.Questions) != RoomsPerGame {
		return s, domain.ErrInsufficientQuestions
	}
	next := NewState()
	next.Screen = ScreenPlaying
	next.PlayerID = st.PlayerID
	next.Nickname = st.Nickname
	next.Avatar = st.Avatar
	next.SessionID = st.SessionID
	next.Category = st.Category
	next.Questions = append([]domain.Question(nil), st.Questions...)
	return next, nil
}

// Playing reports whether a session is active and unfinished.
func (s State) Playing() bool {
	return s.Screen == ScreenPlaying && s.SessionID != "" && s.Room <= RoomsPerGame
}

// Completed reports whether the session has passed the last room.
func (s State) Completed() bool {
	return s.Room >= CompletedRoom
}

// CurrentQuestion returns the question of the current room.
func (s State) CurrentQuestion() (domain.Question, bool) {
	if s.Room < 1 || s.Room > len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Room-1], true
}

// Progress returns the persisted columns of the session.
func (s State) Progress() domain.Progress {
	return domain.Progress{
		CurrentRoom: s.Room,
		Score:       s.Score,
		HintsUsed:   s.HintsUsed,
		TimeElapsed: s.Elapsed,
	}
}

// RoomStats returns the seconds spent in the current room and the number of
// attempts including the one being scored.
func (s State) RoomStats() (timeTaken, attempts int) {
	return s.Elapsed - s.RoomStartedAt, s.Attempts + 1
}

// Solve credits points for the current room and moves to the next one, or
// to the victory screen after the last room.
func (s State) Solve(points int) State {
	s.Score += points
	s.Room++
	s.Attempts = 0
	s.Hint = ""
	s.RoomStartedAt = s.Elapsed
	if s.Room > RoomsPerGame {
		s.Room = CompletedRoom
		s.Screen = ScreenVictory
		s.Return = ScreenVictory
	}
	return s
}

// Miss records a wrong answer in the current room.
func (s State) Miss() State {
	s.Attempts++
	return s
}

// RevealHint spends one hint if fewer than maxHints have been used. The
// revealed text follows the ordinal of hints used so far.
func (s State) RevealHint(maxHints int) (State, bool) {
	if !s.Playing() || s.HintsUsed >= maxHints || s.HintsUsed >= domain.MaxHintsLimit {
		return s, false
	}
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, false
	}
	s.HintsUsed++
	s.Hint = q.Hints[s.HintsUsed-1]
	return s, true
}

// Tick advances the elapsed counter while playing.
func (s State) Tick() State {
	if s.Playing() {
		s.Elapsed++
	}
	return s
}

// Restart returns to the welcome screen keeping only the player identity.
func (s State) Restart() (State, error) {
	if s.Screen != ScreenVictory {
		return s, domain.ErrInvalidTransition
	}
	next := NewState()
	next.PlayerID = s.PlayerID
	next.Nickname = s.Nickname
	next.Avatar = s.Avatar
	return next, nil
}

// OpenLeaderboard shows the leaderboard from the welcome or victory screen.
func (s State) OpenLeaderboard() (State, error) {
	switch s.Screen {
	case ScreenWelcome, ScreenVictory:
		s.Return = s.Screen
		s.Screen = ScreenLeaderboard
		return s, nil
	case ScreenLeaderboard:
		return s, nil
	case ScreenPlaying, ScreenAdmin:
		return s, domain.ErrInvalidTransition
	}
	return s, domain.ErrInvalidTransition
}

// CloseLeaderboard goes back to the screen the leaderboard was opened from.
func (s State) CloseLeaderboard() State {
	if s.Screen != ScreenLeaderboard {
		return s
	}
	s.Screen = s.Return
	return s
}

// OpenAdmin shows the admin panel from the welcome or victory screen, or from
// any screen while the game is disabled.
func (s State) OpenAdmin(gameEnabled bool) (State, error) {
	switch s.Screen {
	case ScreenAdmin:
		return s, nil
	case ScreenWelcome, ScreenVictory:
	case ScreenPlaying, ScreenLeaderboard:
		if gameEnabled {
			return s, domain.ErrInvalidTransition
		}
	default:
		return s, domain.ErrInvalidTransition
	}
	if s.Screen != ScreenLeaderboard {
		s.Return = s.Screen
	}
	s.Screen = ScreenAdmin
	s.AdminUnlocked = false
	return s, nil
}

// UnlockAdmin grants access to the settings form.
func (s State) UnlockAdmin() (State, error) {
	if s.Screen != ScreenAdmin {
		return s, domain.ErrInvalidTransition
	}
	s.AdminUnlocked = true
	return s, nil
}

// CloseAdmin locks the form and goes back to the screen it was opened from.
func (s State) CloseAdmin() State {
	if s.Screen != ScreenAdmin {
		return s
	}
	s.AdminUnlocked = false
	s.Screen = s.Return
	return s
}
