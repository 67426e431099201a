package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var (
	ErrMissingStoreURL = errors.New("store url not configured (TRIVIA_STORE_URL)")
	ErrMissingStoreKey = errors.New("store key not configured (TRIVIA_STORE_KEY)")
)

type Config struct {
	Server struct {
		Bind      string `yaml:"bind"`
		Port      int    `yaml:"port"`
		PublicURL string `yaml:"public_url"`
		Profile   bool   `yaml:"profile"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Key    string `yaml:"key"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Questions struct {
		CacheTTL string `yaml:"cache_ttl"`
		Bank     string `yaml:"bank"`
	} `yaml:"questions"`
	Game struct {
		LeaderboardLimit int    `yaml:"leaderboard_limit"`
		NotificationTTL  string `yaml:"notification_ttl"`
		ClientTTL        string `yaml:"client_ttl"`
	} `yaml:"game"`
	Admin struct {
		Password    string `yaml:"password"`
		UpdaterName string `yaml:"updater_name"`
	} `yaml:"admin"`
	Log struct {
		Level   string `yaml:"level"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"log"`
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	cfg := Config{}
	cfg.Server.Bind = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Store.Driver = DriverPostgres
	cfg.Redis.TTL = "60m"
	cfg.Questions.CacheTTL = "10m"
	cfg.Questions.Bank = "config/questions.yaml"
	cfg.Game.LeaderboardLimit = 20
	cfg.Game.NotificationTTL = "3s"
	cfg.Game.ClientTTL = "60m"
	cfg.Admin.Password = "daw2024"
	cfg.Admin.UpdaterName = "DAW Admin"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path over the defaults. An empty path yields
// the defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Overlay copies every key set in v (environment or flags) onto c. Keys use
// the dotted YAML path, e.g. store.url for TRIVIA_STORE_URL.
func (c *Config) Overlay(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("server.bind", &c.Server.Bind)
	num("server.port", &c.Server.Port)
	str("server.public_url", &c.Server.PublicURL)
	flag("server.profile", &c.Server.Profile)
	str("store.driver", &c.Store.Driver)
	str("store.url", &c.Store.URL)
	str("store.key", &c.Store.Key)
	str("redis.addr", &c.Redis.Addr)
	str("redis.password", &c.Redis.Password)
	num("redis.db", &c.Redis.DB)
	str("redis.ttl", &c.Redis.TTL)
	str("questions.cache_ttl", &c.Questions.CacheTTL)
	str("questions.bank", &c.Questions.Bank)
	num("game.leaderboard_limit", &c.Game.LeaderboardLimit)
	str("game.notification_ttl", &c.Game.NotificationTTL)
	str("game.client_ttl", &c.Game.ClientTTL)
	str("admin.password", &c.Admin.Password)
	str("admin.updater_name", &c.Admin.UpdaterName)
	str("log.level", &c.Log.Level)
	flag("log.verbose", &c.Log.Verbose)
}

// Validate reports every problem that would stop the server from starting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Store.URL) == "" {
		errs = append(errs, ErrMissingStoreURL)
	}
	if strings.TrimSpace(c.Store.Key) == "" {
		errs = append(errs, ErrMissingStoreKey)
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port))
	}
	if c.Game.LeaderboardLimit < 1 {
		errs = append(errs, fmt.Errorf("invalid leaderboard limit: %d", c.Game.LeaderboardLimit))
	}
	if c.Admin.Password == "" {
		errs = append(errs, errors.New("admin password not configured"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses log.level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
