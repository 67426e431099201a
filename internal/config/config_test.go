package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
store:
  driver: sqlite
  url: trivia.db
game:
  leaderboard_limit: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Store.Driver != DriverSQLite || cfg.Game.LeaderboardLimit != 10 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Server.Bind != "0.0.0.0" || cfg.Admin.UpdaterName != "DAW Admin" || cfg.Game.NotificationTTL != "3s" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	cfg, err := Load("")
	if err != nil || cfg.Server.Port != 8080 {
		t.Fatalf("expected defaults for empty path, got %+v %v", cfg, err)
	}
}

func TestValidateRequiresStoreSettings(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if !errors.Is(err, ErrMissingStoreURL) || !errors.Is(err, ErrMissingStoreKey) {
		t.Fatalf("expected both store errors, got %v", err)
	}

	cfg.Store.URL = "postgres://trivia@localhost/trivia"
	cfg.Store.Key = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Store.Driver = "mongo"
	cfg.Server.Port = 70000
	cfg.Log.Level = "loud"
	err = cfg.Validate()
	for _, want := range []string{"unknown store driver", "invalid port", "invalid log level"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestOverlayFromEnvironment(t *testing.T) {
	t.Setenv("TRIVIA_STORE_URL", "file.db")
	t.Setenv("TRIVIA_STORE_KEY", "k")
	t.Setenv("TRIVIA_SERVER_PORT", "7000")
	t.Setenv("TRIVIA_LOG_VERBOSE", "true")

	v := viper.New()
	v.SetEnvPrefix("TRIVIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	cfg.Overlay(v)
	if cfg.Store.URL != "file.db" || cfg.Store.Key != "k" || cfg.Server.Port != 7000 || !cfg.Log.Verbose {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Fatalf("unset keys must keep their value, got driver %q", cfg.Store.Driver)
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	if level, err := cfg.LogLevel(); err != nil || level != slog.LevelDebug {
		t.Fatalf("expected debug, got %v %v", level, err)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
