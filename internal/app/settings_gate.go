package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"halloween-trivia/internal/domain"
)

// SettingsGate guards the admin panel and holds the shared settings snapshot.
type SettingsGate struct {
	repo     SettingsRepository
	password string
	logger   *slog.Logger

	mu      sync.RWMutex
	current domain.AdminSettings
	loaded  bool
}

func NewSettingsGate(repo SettingsRepository, password string, logger *slog.Logger) *SettingsGate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SettingsGate{repo: repo, password: password, logger: logger}
}

// Check compares password with the shared secret.
func (g *SettingsGate) Check(password string) error {
	if g.password == "" || password != g.password {
		return domain.ErrWrongPassword
	}
	return nil
}

// Reload fetches the settings record and replaces the snapshot.
func (g *SettingsGate) Reload(ctx context.Context) error {
	settings, err := g.repo.LoadSettings(ctx)
	if err != nil {
		g.logger.Error("load admin settings", "err", err)
		return err
	}
	g.mu.Lock()
	g.current = settings
	g.loaded = true
	g.mu.Unlock()
	return nil
}

// Current returns the snapshot, loading it first if it never loaded.
func (g *SettingsGate) Current(ctx context.Context) (domain.AdminSettings, error) {
	g.mu.RLock()
	settings, loaded := g.current, g.loaded
	g.mu.RUnlock()
	if loaded {
		return settings, nil
	}
	if err := g.Reload(ctx); err != nil {
		return domain.AdminSettings{}, errors.Join(domain.ErrSettingsUnavailable, err)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current, nil
}

// Save validates and writes the full record, then adopts it as the snapshot.
func (g *SettingsGate) Save(ctx context.Context, settings domain.AdminSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := g.repo.SaveSettings(ctx, settings); err != nil {
		g.logger.Error("save admin settings", "err", err)
		return err
	}
	g.mu.Lock()
	g.current = settings
	g.loaded = true
	g.mu.Unlock()
	return nil
}

// Watch reloads the snapshot on every admin_settings change until ctx is done.
func (g *SettingsGate) Watch(ctx context.Context, notifier Notifier) error {
	changes, cancel, err := notifier.Subscribe(ctx, domain.TopicAdminSettings)
	if err != nil {
		return err
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			_ = g.Reload(ctx)
		}
	}
}
