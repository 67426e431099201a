package domain

import "errors"

var (
	// ErrEmptyAnswer is returned for blank answer submissions.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrNicknameTooShort is returned when a nickname has fewer than MinNicknameLength characters.
	ErrNicknameTooShort = errors.New("nickname is too short")
	ErrInvalidAvatar    = errors.New("unknown avatar")
	ErrInvalidCategory  = errors.New("unknown category")
	// ErrInsufficientQuestions means a category cannot fill the 2/2/1 quota.
	ErrInsufficientQuestions = errors.New("not enough questions in category")
	ErrInvalidSettings       = errors.New("invalid admin settings")

	// ErrGameDisabled is returned for play actions while the game is switched off.
	ErrGameDisabled        = errors.New("game is disabled")
	ErrNoActiveSession     = errors.New("no active game session")
	ErrInvalidTransition   = errors.New("action not allowed on current screen")
	ErrSettingsUnavailable = errors.New("admin settings unavailable")

	ErrWrongPassword = errors.New("wrong admin password")
	ErrAdminLocked   = errors.New("admin panel is locked")

	ErrPlayerNotFound   = errors.New("player not found")
	ErrSessionNotFound  = errors.New("game session not found")
	ErrSettingsNotFound = errors.New("admin settings not found")
)

// MinNicknameLength is the shortest nickname accepted at game start.
const MinNicknameLength = 3
