package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"halloween-trivia/internal/domain"
)

// Store is an in-memory implementation of app.Store.
type Store struct {
	mu          sync.RWMutex
	players     map[string]domain.Player
	byNickname  map[string]string
	sessions    map[string]domain.GameSession
	completions map[completionKey]domain.RoomCompletion
	settings    *domain.AdminSettings
}

type completionKey struct {
	session string
	room    int
}

// NewStore returns an empty store seeded with settings, if given.
func NewStore(settings *domain.AdminSettings) *Store {
	return &Store{
		players:     make(map[string]domain.Player),
		byNickname:  make(map[string]string),
		sessions:    make(map[string]domain.GameSession),
		completions: make(map[completionKey]domain.RoomCompletion),
		settings:    settings,
	}
}

// DefaultSettings is the record a fresh store starts with.
func DefaultSettings() domain.AdminSettings {
	return domain.AdminSettings{
		ID:              "default",
		GameEnabled:     true,
		DifficultyLevel: domain.LevelMedium,
		MaxHints:        domain.MaxHintsLimit,
	}
}

func (s *Store) PlayerByNickname(_ context.Context, nickname string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNickname[nickname]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return s.players[id], nil
}

func (s *Store) PlayerByID(_ context.Context, id string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (s *Store) CreatePlayer(_ context.Context, player domain.Player) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byNickname[player.Nickname]; ok {
		return s.players[id], nil
	}
	s.players[player.ID] = player
	s.byNickname[player.Nickname] = player.ID
	return player, nil
}

func (s *Store) UpdatePlayerTotals(_ context.Context, id string, totalScore, gamesCompleted int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.TotalScore = totalScore
	p.GamesCompleted = gamesCompleted
	s.players[id] = p
	return nil
}

func (s *Store) CreateSession(_ context.Context, session domain.GameSession) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[session.PlayerID]; !ok {
		return domain.GameSession{}, domain.ErrPlayerNotFound
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *Store) SaveProgress(_ context.Context, sessionID string, progress domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	gs.Progress = progress
	s.sessions[sessionID] = gs
	return nil
}

func (s *Store) CompleteSession(_ context.Context, sessionID string, progress domain.Progress, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	gs.Progress = progress
	gs.IsCompleted = true
	at := completedAt
	gs.CompletedAt = &at
	s.sessions[sessionID] = gs
	return nil
}

func (s *Store) RecordRoomCompletion(_ context.Context, c domain.RoomCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[c.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	key := completionKey{session: c.SessionID, room: c.RoomNumber}
	if _, ok := s.completions[key]; !ok {
		s.completions[key] = c
	}
	return nil
}

func (s *Store) LoadSettings(_ context.Context) (domain.AdminSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return domain.AdminSettings{}, domain.ErrSettingsNotFound
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.AdminSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings != nil && settings.ID == "" {
		settings.ID = s.settings.ID
	}
	s.settings = &settings
	return nil
}

func (s *Store) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		best  int
		sum   int
		count int
	}
	stats := make(map[string]*agg)
	for _, gs := range s.sessions {
		if !gs.IsCompleted {
			continue
		}
		a := stats[gs.PlayerID]
		if a == nil {
			a = &agg{best: gs.TimeElapsed}
			stats[gs.PlayerID] = a
		}
		if gs.TimeElapsed < a.best {
			a.best = gs.TimeElapsed
		}
		a.sum += gs.Score
		a.count++
	}

	entries := make([]domain.LeaderboardEntry, 0, len(s.players))
	for _, p := range s.players {
		e := domain.LeaderboardEntry{
			PlayerID:       p.ID,
			Nickname:       p.Nickname,
			AvatarIcon:     p.AvatarIcon,
			TotalScore:     p.TotalScore,
			GamesCompleted: p.GamesCompleted,
		}
		if a := stats[p.ID]; a != nil {
			e.BestTime = a.best
			e.AverageScore = float64(a.sum) / float64(a.count)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return strings.Compare(entries[i].Nickname, entries[j].Nickname) < 0
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Session returns a stored session.
func (s *Store) Session(id string) (domain.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gs, ok := s.sessions[id]
	return gs, ok
}

// Completions returns the room completions of a session ordered by room.
func (s *Store) Completions(sessionID string) []domain.RoomCompletion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RoomCompletion
	for key, c := range s.completions {
		if key.session == sessionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out
}

// Counts reports how many players and sessions exist.
func (s *Store) Counts() (players, sessions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), len(s.sessions)
}
