package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"halloween-trivia/internal/config"
	"halloween-trivia/internal/infra/postgres"
	"halloween-trivia/internal/infra/sqlite"
)

// newMigrateCmd applies (or with --rollback reverts) database migrations.
func newMigrateCmd(v *viper.Viper) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg, rollback, logger)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last migration group")
	return cmd
}

func runMigrations(ctx context.Context, cfg config.Config, rollback bool, logger *slog.Logger) error {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.OpenDB(ctx, cfg.Store.URL, cfg.Store.Key)
		if err != nil {
			return err
		}
		defer db.Close()

		run, verb := postgres.Migrate, "applied"
		if rollback {
			run, verb = postgres.Rollback, "rolled back"
		}
		group, err := run(ctx, db)
		if err != nil {
			return err
		}
		if group == nil || group.IsZero() {
			logger.Info("no migrations to run")
			return nil
		}
		logger.Info("migrations "+verb, "group", group.String())
		return nil

	case config.DriverSQLite:
		if rollback {
			return fmt.Errorf("rollback is not supported for sqlite")
		}
		store, err := sqlite.Open(ctx, cfg.Store.URL)
		if err != nil {
			return err
		}
		logger.Info("sqlite schema ready", "path", cfg.Store.URL)
		return store.Close()

	default:
		logger.Info("nothing to migrate", "store", cfg.Store.Driver)
		return nil
	}
}
