package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kinia-ve/kinia/internal/app"
	jobmetrics "github.com/kinia-ve/kinia/internal/jobs"
	"github.com/kinia-ve/kinia/internal/observability"
	"github.com/kinia-ve/kinia/internal/platform/cache"
	"github.com/kinia-ve/kinia/internal/platform/db"
	"github.com/kinia-ve/kinia/internal/scoring"
	"github.com/kinia-ve/kinia/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, db.Config{
		DSN:             cfg.PGDSN,
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		ConnMaxLifetime: cfg.PGConnMaxLifetime,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(nil)

	scoringRepo := scoring.NewRepository(pool)
	configCache := scoring.NewConfigCache(redisClient, cfg.ConfigCacheTTL)
	scoringService := scoring.NewService(logger, scoringRepo, scoring.NewEngine(), configCache, metrics)
	dataSource := scoring.NewDataSource(pool)

	cleanupTask, err := jobs.NewCleanupEventosTask(jobs.CleanupEventosPayload{RetentionDays: cfg.EventRetentionDays})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRescoreDeudor, Handler: jobs.NewRescoreDeudorHandler(scoringService, dataSource, jobMetrics, logger)},
			{Type: jobs.TaskTypeCleanupEventos, Handler: jobs.NewCleanupEventosHandler(pool, jobMetrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
