package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
)

// AnswerOutcome summarizes what an answer submission did.
type AnswerOutcome string

const (
	AnswerIgnored   AnswerOutcome = "ignored"
	AnswerIncorrect AnswerOutcome = "incorrect"
	AnswerCorrect   AnswerOutcome = "correct"
	AnswerCompleted AnswerOutcome = "completed"
)

// HintOutcome summarizes what a hint request did.
type HintOutcome string

const (
	HintRevealed HintOutcome = "revealed"
	HintRefused  HintOutcome = "refused"
)

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a transient notification shown over the current screen.
type Toast struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"-"`
}

// StartRequest is what the welcome form submits.
type StartRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Category string `json:"category"`
}

// SettingsForm is what the admin form submits.
type SettingsForm struct {
	GameEnabled     bool   `json:"gameEnabled"`
	DifficultyLevel string `json:"difficultyLevel"`
	MaxHints        int    `json:"maxHints"`
	Announcement    string `json:"announcement"`
}

// Game owns the state of one client and runs its transitions.
type Game struct {
	id     string
	svc    *Service
	ticker *game.Ticker

	mu       sync.Mutex
	state    game.State
	toast    *Toast
	lastSeen time.Time

	// inFlight admits one store-backed action at a time.
	inFlight atomic.Bool
}

func newGame(id string, svc *Service) *Game {
	return &Game{
		id:       id,
		svc:      svc,
		ticker:   game.NewTicker(svc.opts.Ticks),
		state:    game.NewState(),
		lastSeen: svc.opts.Now(),
	}
}

// ID returns the client identifier.
func (g *Game) ID() string {
	return g.id
}

// State returns a copy of the current state.
func (g *Game) State() game.State {
	return g.snapshot()
}

// LastSeen is the last time the client touched its game.
func (g *Game) LastSeen() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSeen
}

// Close stops the elapsed-time ticker.
func (g *Game) Close() {
	g.ticker.Stop()
}

// Start validates the welcome form, draws the questions and opens a session.
// Nothing is written when validation or question selection fails.
func (g *Game) Start(ctx context.Context, req StartRequest) error {
	if _, err := g.enabledSettings(ctx); err != nil {
		return err
	}

	nickname := strings.TrimSpace(req.Nickname)
	if utf8.RuneCountInString(nickname) < domain.MinNicknameLength {
		return domain.ErrNicknameTooShort
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = domain.DefaultAvatar
	}
	if !domain.ValidAvatar(avatar) {
		return domain.ErrInvalidAvatar
	}
	category := domain.Category(req.Category)
	if category == "" {
		category = domain.CategoryMixed
	}
	if !category.Valid() {
		return domain.ErrInvalidCategory
	}

	if !g.inFlight.CompareAndSwap(false, true) {
		return domain.ErrInvalidTransition
	}
	defer g.inFlight.Store(false)

	if g.snapshot().Screen != game.ScreenWelcome {
		return domain.ErrInvalidTransition
	}

	pool, err := g.svc.questions.Questions(ctx, category)
	if err != nil {
		return g.fail("load questions", err, "Error al iniciar el juego")
	}
	questions, err := g.svc.selectQuestions(pool)
	if err != nil {
		g.notify(ToastError, "No hay suficientes preguntas en esta categoría")
		return err
	}

	player, err := g.findOrCreatePlayer(ctx, nickname, avatar)
	if err != nil {
		return g.fail("find or create player", err, "Error al iniciar el juego")
	}

	now := g.svc.opts.Now()
	session, err := g.svc.store.CreateSession(ctx, domain.GameSession{
		ID:               g.svc.opts.NewID(),
		PlayerID:         player.ID,
		Progress:         domain.Progress{CurrentRoom: 1},
		SelectedCategory: category,
		StartedAt:        now,
	})
	if err != nil {
		return g.fail("create session", err, "Error al iniciar el juego")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	next, err := g.state.Begin(game.Start{
		PlayerID:  player.ID,
		Nickname:  nickname,
		Avatar:    avatar,
		SessionID: session.ID,
		Category:  category,
		Questions: questions,
	})
	if err != nil {
		return err
	}
	g.setLocked(next)
	g.notifyLocked(ToastSuccess, "¡Bienvenido al test de Halloween! 👻")
	return nil
}

func (g *Game) findOrCreatePlayer(ctx context.Context, nickname, avatar string) (domain.Player, error) {
	player, err := g.svc.store.PlayerByNickname(ctx, nickname)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.Player{}, err
	}
	player, err = g.svc.store.CreatePlayer(ctx, domain.Player{
		ID:         g.svc.opts.NewID(),
		Nickname:   nickname,
		AvatarIcon: avatar,
		CreatedAt:  g.svc.opts.Now(),
	})
	if err != nil {
		return domain.Player{}, err
	}
	// a new row joins the leaderboard view with zero totals
	g.svc.publish(ctx, domain.TopicPlayers)
	return player, nil
}

// Answer scores a submission for the current room. Submissions that arrive
// while a previous one is being evaluated are ignored.
func (g *Game) Answer(ctx context.Context, answer string) (AnswerOutcome, error) {
	if game.NormalizeAnswer(answer) == "" {
		return AnswerIgnored, domain.ErrEmptyAnswer
	}
	if _, err := g.enabledSettings(ctx); err != nil {
		return AnswerIgnored, err
	}

	if !g.inFlight.CompareAndSwap(false, true) {
		return AnswerIgnored, nil
	}
	defer g.inFlight.Store(false)

	s := g.snapshot()
	if !s.Playing() {
		return AnswerIgnored, nil
	}
	q, ok := s.CurrentQuestion()
	if !ok {
		return AnswerIgnored, nil
	}

	if !game.MatchAnswer(answer, q) {
		g.mu.Lock()
		if g.sameRoomLocked(s) {
			g.state = g.state.Miss()
		}
		g.notifyLocked(ToastError, "❌ Respuesta incorrecta. ¡Intenta de nuevo!")
		g.mu.Unlock()
		return AnswerIncorrect, nil
	}

	now := g.svc.opts.Now()
	timeTaken, attempts := s.RoomStats()
	if err := g.svc.store.RecordRoomCompletion(ctx, domain.RoomCompletion{
		ID:          g.svc.opts.NewID(),
		SessionID:   s.SessionID,
		RoomNumber:  s.Room,
		QuestionID:  q.ID,
		TimeTaken:   timeTaken,
		Attempts:    attempts,
		CompletedAt: now,
	}); err != nil {
		return AnswerIgnored, g.fail("record room completion", err, "Error al procesar respuesta")
	}

	next := s.Solve(q.Points)
	outcome := AnswerCorrect
	if next.Completed() {
		outcome = AnswerCompleted
		if err := g.complete(ctx, next, now); err != nil {
			return AnswerIgnored, g.fail("complete session", err, "Error al procesar respuesta")
		}
	} else if err := g.svc.store.SaveProgress(ctx, s.SessionID, next.Progress()); err != nil {
		return AnswerIgnored, g.fail("save progress", err, "Error al procesar respuesta")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sameRoomLocked(s) {
		g.setLocked(g.state.Solve(q.Points))
	}
	if outcome == AnswerCompleted {
		g.notifyLocked(ToastSuccess, "¡HAS COMPLETADO EL TEST! 🎉")
	} else {
		g.notifyLocked(ToastSuccess, "¡Correcto! Siguiente pregunta 👍")
	}
	return outcome, nil
}

// complete marks the session finished and credits the player's totals once.
func (g *Game) complete(ctx context.Context, final game.State, at time.Time) error {
	if err := g.svc.store.CompleteSession(ctx, final.SessionID, final.Progress(), at); err != nil {
		return err
	}
	player, err := g.svc.store.PlayerByID(ctx, final.PlayerID)
	if err != nil {
		return fmt.Errorf("load player totals: %w", err)
	}
	if err := g.svc.store.UpdatePlayerTotals(ctx, player.ID, player.TotalScore+final.Score, player.GamesCompleted+1); err != nil {
		return err
	}
	g.svc.publish(ctx, domain.TopicPlayers)
	return nil
}

// Hint reveals the next clue if the client is under the hint limit.
func (g *Game) Hint(ctx context.Context) (HintOutcome, error) {
	settings, err := g.enabledSettings(ctx)
	if err != nil {
		return HintRefused, err
	}
	maxHints := settings.EffectiveMaxHints()

	if !g.inFlight.CompareAndSwap(false, true) {
		return HintRefused, nil
	}
	defer g.inFlight.Store(false)

	s := g.snapshot()
	if !s.Playing() {
		return HintRefused, domain.ErrNoActiveSession
	}
	next, ok := s.RevealHint(maxHints)
	if !ok {
		return HintRefused, nil
	}
	if err := g.svc.store.SaveProgress(ctx, s.SessionID, next.Progress()); err != nil {
		return HintRefused, g.fail("save hint", err, "Error al usar la pista")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sameRoomLocked(s) {
		if revealed, ok := g.state.RevealHint(maxHints); ok {
			g.state = revealed
		}
	}
	g.notifyLocked(ToastSuccess, "💡 Pista revelada")
	return HintRevealed, nil
}

// Restart returns to the welcome screen after a completed game.
func (g *Game) Restart() error {
	return g.transition(func(s game.State) (game.State, error) { return s.Restart() })
}

// OpenLeaderboard shows the leaderboard view.
func (g *Game) OpenLeaderboard(ctx context.Context) error {
	if _, err := g.enabledSettings(ctx); err != nil {
		return err
	}
	return g.transition(func(s game.State) (game.State, error) { return s.OpenLeaderboard() })
}

// CloseLeaderboard goes back to the previous screen.
func (g *Game) CloseLeaderboard() {
	_ = g.transition(func(s game.State) (game.State, error) { return s.CloseLeaderboard(), nil })
}

// OpenAdmin shows the locked admin panel. It stays reachable while the game
// is disabled or its settings cannot be loaded.
func (g *Game) OpenAdmin(ctx context.Context) error {
	enabled := false
	if settings, err := g.svc.gate.Current(ctx); err == nil {
		enabled = settings.GameEnabled
	}
	return g.transition(func(s game.State) (game.State, error) { return s.OpenAdmin(enabled) })
}

// Login unlocks the admin form when password matches the shared secret.
func (g *Game) Login(ctx context.Context, password string) error {
	if g.snapshot().Screen != game.ScreenAdmin {
		return domain.ErrInvalidTransition
	}
	if err := g.svc.gate.Check(password); err != nil {
		g.notify(ToastError, "Contraseña incorrecta")
		return err
	}
	if err := g.transition(func(s game.State) (game.State, error) { return s.UnlockAdmin() }); err != nil {
		return err
	}
	if err := g.svc.gate.Reload(ctx); err != nil {
		g.notify(ToastError, "Error al cargar configuración")
		return nil
	}
	g.notify(ToastSuccess, "¡Acceso concedido!")
	return nil
}

// SaveSettings writes the admin form over the settings record.
func (g *Game) SaveSettings(ctx context.Context, form SettingsForm) error {
	s := g.snapshot()
	if s.Screen != game.ScreenAdmin || !s.AdminUnlocked {
		return domain.ErrAdminLocked
	}
	current, err := g.svc.gate.Current(ctx)
	if err != nil {
		g.notify(ToastError, "Error al cargar configuración")
		return err
	}

	next := current
	next.GameEnabled = form.GameEnabled
	next.DifficultyLevel = form.DifficultyLevel
	next.MaxHints = form.MaxHints
	next.Announcement = form.Announcement
	next.UpdatedAt = g.svc.opts.Now()
	next.UpdatedBy = g.svc.opts.UpdaterName
	if err := next.Validate(); err != nil {
		return err
	}

	if err := g.svc.gate.Save(ctx, next); err != nil {
		g.notify(ToastError, "Error al guardar")
		return err
	}
	g.svc.publish(ctx, domain.TopicAdminSettings)
	g.notify(ToastSuccess, "¡Configuración guardada!")
	return nil
}

// CloseAdmin re-fetches the settings and goes back to the previous screen.
func (g *Game) CloseAdmin(ctx context.Context) {
	_ = g.svc.gate.Reload(ctx)
	_ = g.transition(func(s game.State) (game.State, error) { return s.CloseAdmin(), nil })
}

func (g *Game) transition(fn func(game.State) (game.State, error)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next, err := fn(g.state)
	if err != nil {
		return err
	}
	g.setLocked(next)
	return nil
}

// setLocked installs next and keeps the ticker running exactly while playing.
func (g *Game) setLocked(next game.State) {
	g.state = next
	if next.Playing() {
		g.ticker.Start(g.tick)
	} else {
		g.ticker.Stop()
	}
}

func (g *Game) tick() {
	g.mu.Lock()
	g.state = g.state.Tick()
	g.mu.Unlock()
}

func (g *Game) sameRoomLocked(s game.State) bool {
	return g.state.SessionID == s.SessionID && g.state.Room == s.Room
}

func (g *Game) snapshot() game.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Touch records client activity at now.
func (g *Game) Touch(now time.Time) {
	g.mu.Lock()
	g.lastSeen = now
	g.mu.Unlock()
}

func (g *Game) enabledSettings(ctx context.Context) (domain.AdminSettings, error) {
	settings, err := g.svc.gate.Current(ctx)
	if err != nil {
		return settings, err
	}
	if !settings.GameEnabled {
		return settings, domain.ErrGameDisabled
	}
	return settings, nil
}

// fail logs a store failure, shows a generic toast and wraps err.
func (g *Game) fail(op string, err error, message string) error {
	s := g.snapshot()
	g.svc.logger.Error(op, "client", g.id, "session", s.SessionID, "player", s.PlayerID, "err", err)
	g.notify(ToastError, message)
	return fmt.Errorf("%s: %w", op, err)
}

func (g *Game) notify(kind, message string) {
	g.mu.Lock()
	g.notifyLocked(kind, message)
	g.mu.Unlock()
}

func (g *Game) notifyLocked(kind, message string) {
	g.toast = &Toast{Kind: kind, Message: message, ExpiresAt: g.svc.opts.Now().Add(g.svc.opts.NotificationTTL)}
}
