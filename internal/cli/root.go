package cli

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"halloween-trivia/internal/config"
)

const (
	envPrefix         = "TRIVIA"
	defaultConfigPath = "config/config.yaml"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"bind":         "server.bind",
	"port":         "server.port",
	"public-url":   "server.public_url",
	"profile":      "server.profile",
	"store-driver": "store.driver",
	"redis-addr":   "redis.addr",
	"log-level":    "log.level",
	"verbose":      "log.verbose",
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "halloween-trivia",
		Short:         "Halloween trivia game server",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn("load .env", "err", err)
			}
		},
	}

	fs := cmd.PersistentFlags()
	fs.String("config", defaultConfigPath, "path to YAML config")
	fs.String("bind", "0.0.0.0", "address to bind to")
	fs.Int("port", 8080, "port to listen on")
	fs.String("public-url", "", "public URL encoded in the share QR code")
	fs.Bool("profile", false, "register pprof handlers under /pprof")
	fs.String("store-driver", config.DriverPostgres, "store driver (postgres, sqlite, memory)")
	fs.String("redis-addr", "", "redis address; empty keeps caches in process")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolP("verbose", "v", false, "log source locations")
	fs.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		_ = v.BindPFlag(key, f)
	})

	cmd.AddCommand(newStartCmd(v))
	cmd.AddCommand(newMigrateCmd(v))
	cmd.AddCommand(newSeedCmd(v))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	})
	return cmd
}

// loadConfig reads the config file, then applies environment and flags. A
// missing file at the default path is not an error.
func loadConfig(v *viper.Viper) (config.Config, error) {
	path := v.GetString("config")
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.Overlay(v)
	return cfg, nil
}

// newLogger installs a tint console handler as the default slog logger.
func newLogger(cfg config.Config) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		AddSource:  cfg.Log.Verbose,
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(logger)
	return logger
}
