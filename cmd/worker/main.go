// Package main runs the role sweep worker: a full sweep of every organization at startup and
// on an interval, plus sweeps requested through the Redis queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/partnerbot/backend/config"
	"github.com/partnerbot/backend/internal/discord"
	"github.com/partnerbot/backend/internal/organizations"
	"github.com/partnerbot/backend/internal/partners"
	"github.com/partnerbot/backend/internal/reports"
	"github.com/partnerbot/backend/internal/roles"
	"github.com/partnerbot/backend/internal/worker"
	"github.com/partnerbot/backend/pkg/database"
	"github.com/partnerbot/backend/pkg/queue"
	"github.com/partnerbot/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	db := database.New(pool)
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	bot, err := discord.New(cfg.Discord.BotToken, logger)
	if err != nil {
		logger.Fatal("discord", zap.Error(err))
	}

	orgRepo := organizations.NewRepository(db)
	reconciler := roles.NewReconciler(partners.NewRepository(db), orgRepo, bot, logger)
	sweeper := worker.NewSweeper(
		orgRepo,
		reconciler,
		reports.NewRedisStore(rdb.Client, cfg.Sync.ReportTTL),
		queue.NewQueue(rdb.Client, logger),
		cfg.Sync.RoleSweepInterval,
		logger,
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(workerCtx)
	}()
	logger.Info("worker started", zap.Duration("sweep_interval", cfg.Sync.RoleSweepInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
