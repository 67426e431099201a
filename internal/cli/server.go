package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/config"
	transport "halloween-trivia/internal/transport/http"
)

const reapInterval = time.Minute

func newStartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("close backend", "err", err)
		}
	}()

	service := app.NewService(b.store, b.questions, b.games, b.notifier, app.Options{
		AdminPassword:    cfg.Admin.Password,
		UpdaterName:      cfg.Admin.UpdaterName,
		LeaderboardLimit: cfg.Game.LeaderboardLimit,
		NotificationTTL:  config.TTLDuration(cfg.Game.NotificationTTL, 3*time.Second),
		ClientTTL:        config.TTLDuration(cfg.Game.ClientTTL, time.Hour),
		Logger:           logger,
	})

	handler := transport.NewRouter(service, transport.RouterOptions{
		Logger:    logger,
		PublicURL: cfg.Server.PublicURL,
		Profile:   cfg.Server.Profile,
		Version:   version,
	})
	addr := net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port))
	srv := transport.NewServer(addr, handler)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia server", "addr", addr, "store", cfg.Store.Driver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		return transport.Shutdown(srv)
	})
	g.Go(func() error { return service.Feed().Run(ctx, b.notifier) })
	g.Go(func() error { return service.Gate().Watch(ctx, b.notifier) })
	g.Go(func() error { return service.RunReaper(ctx, reapInterval) })

	return g.Wait()
}
