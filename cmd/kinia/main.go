package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/kinia-ve/kinia/internal/app"
	"github.com/kinia-ve/kinia/internal/factoring"
	"github.com/kinia-ve/kinia/internal/observability"
	"github.com/kinia-ve/kinia/internal/platform/cache"
	"github.com/kinia-ve/kinia/internal/platform/db"
	"github.com/kinia-ve/kinia/internal/relationship"
	"github.com/kinia-ve/kinia/internal/scoring"
	"github.com/kinia-ve/kinia/internal/shared"
	"github.com/kinia-ve/kinia/jobs"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-key" {
		if err := runHashKey(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

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
		logger.Error("connect postgres", slog.Any("error", err))
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
	verifier := shared.NewAPIKeyVerifier(cfg.APIKeyHash)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	scoringRepo := scoring.NewRepository(pool)
	configCache := scoring.NewConfigCache(redisClient, cfg.ConfigCacheTTL)
	scoringService := scoring.NewService(logger, scoringRepo, scoring.NewEngine(), configCache, metrics)
	scoringHandler := scoring.NewHandler(logger, scoringService)

	relationshipRepo := relationship.NewRepository(pool)
	relationshipService := relationship.NewService(logger, relationshipRepo, jobClient, metrics)
	relationshipHandler := relationship.NewHandler(logger, relationshipService)

	factoringRepo := factoring.NewRepository(pool)
	factoringService := factoring.NewService(logger, factoringRepo, scoringService)
	factoringHandler := factoring.NewHandler(logger, factoringService)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Verifier:            verifier,
		ScoringHandler:      scoringHandler,
		RelationshipHandler: relationshipHandler,
		FactoringHandler:    factoringHandler,
		Pool:                pool,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}

// runHashKey prints the bcrypt hash for API_KEY_HASH.
func runHashKey(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: kinia hash-key <key>")
	}
	hash, err := shared.HashAPIKey(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
