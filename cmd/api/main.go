package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/cache"
	"github.com/caesarius1187/tgh/internal/config"
	"github.com/caesarius1187/tgh/internal/database"
	"github.com/caesarius1187/tgh/internal/handlers"
	"github.com/caesarius1187/tgh/internal/jobs"
	"github.com/caesarius1187/tgh/internal/log"
	"github.com/caesarius1187/tgh/internal/ratelimit"
	"github.com/caesarius1187/tgh/internal/repository"
	"github.com/caesarius1187/tgh/internal/server"
	"github.com/caesarius1187/tgh/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	if cfg.Security.JWTSecret == config.DevJWTSecret {
		logger.Warn().Msg("using the built-in development jwt secret")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	var attemptStore ratelimit.Store
	var memoryAttempts *ratelimit.MemoryStore
	if redisClient != nil {
		attemptStore = ratelimit.NewRedisStore(redisClient)
	} else {
		memoryAttempts = ratelimit.NewMemoryStore()
		attemptStore = memoryAttempts
	}
	tracker := ratelimit.NewTracker(attemptStore, cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration, logger)

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, tracker, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(repository.NewSessionRepository(dbPool), memoryAttempts, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
