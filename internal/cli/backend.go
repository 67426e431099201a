package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/config"
	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/infra/memory"
	"halloween-trivia/internal/infra/postgres"
	redisinfra "halloween-trivia/internal/infra/redis"
	"halloween-trivia/internal/infra/sqlite"
)

// questionSaver is implemented by stores that hold the question bank.
type questionSaver interface {
	SaveQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

// backend is everything the service needs from the outside world.
type backend struct {
	store     app.Store
	loader    memory.QuestionLoader
	saver     questionSaver
	questions app.QuestionRepository
	games     app.GameRepository
	notifier  app.Notifier

	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openStore connects the configured store driver. Postgres is migrated
// before use. The memory driver serves the bank file read from disk.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.OpenDB(ctx, cfg.Store.URL, cfg.Store.Key)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		group, err := postgres.Migrate(ctx, db)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if group != nil && !group.IsZero() {
			logger.Info("migrations applied", "group", group.String())
		}
		pool, err := postgres.ConnectPool(ctx, cfg.Store.URL, cfg.Store.Key)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		store := postgres.NewStore(db)
		b.store, b.saver, b.loader = store, store, postgres.NewQuestionLoader(pool)

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Store.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		b.store, b.saver, b.loader = store, store, store

	case config.DriverMemory:
		settings := memory.DefaultSettings()
		b.store = memory.NewStore(&settings)
		bank, err := readBank(cfg.Questions.Bank)
		if err != nil {
			return nil, err
		}
		b.loader = memory.NewStaticQuestionLoader(bank)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return b, nil
}

// openBackend adds caches, the game registry and the notifier on top of the
// store, backed by Redis when an address is configured.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	cacheTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	if cfg.Redis.Addr == "" {
		b.questions = memory.NewQuestionRepository(b.loader, cacheTTL)
		b.games = memory.NewGameRegistry()
		b.notifier = memory.NewNotifier()
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	b.closers = append(b.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	b.questions = redisinfra.NewQuestionRepository(client, b.loader, cacheTTL)
	b.games = redisinfra.NewGameRegistry(client, config.TTLDuration(cfg.Redis.TTL, time.Hour))
	b.notifier = redisinfra.NewNotifier(client)
	logger.Info("using redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return b, nil
}
