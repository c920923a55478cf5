package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/app"
	"github.com/helpdesk/it-helpdesk/internal/config"
	"github.com/helpdesk/it-helpdesk/internal/observability"
	"github.com/helpdesk/it-helpdesk/internal/persistence"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/repository/memory"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		repos repository.Repositories
		tx    repository.TxManager
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewRepositories(pg.PoolHandle())
		tx = repository.NewTxManager(pg.PoolHandle())
	} else {
		store := memory.New()
		repos = store.Repositories()
		tx = store.TxManager()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	application := app.New(app.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Repos:    repos,
		Tx:       tx,
		Postgres: pg,
		Redis:    redis,
	})

	if cfg.Auth.SeedAdminEmail != "" && cfg.Auth.SeedAdminPassword != "" {
		if _, _, err := application.Auth.SeedAdmin(ctx, service.SeedAdminInput{
			Email:    cfg.Auth.SeedAdminEmail,
			Password: cfg.Auth.SeedAdminPassword,
		}); err != nil {
			logger.Error("failed to seed admin account", zap.Error(err))
		}
	}

	go func() {
		if err := application.Fiber.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
