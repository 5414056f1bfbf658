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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mtreharne/focusbeat/internal/client/oura"
	"github.com/mtreharne/focusbeat/internal/collect"
	"github.com/mtreharne/focusbeat/internal/config"
	"github.com/mtreharne/focusbeat/internal/credential"
	"github.com/mtreharne/focusbeat/internal/migrations/postgres"
	"github.com/mtreharne/focusbeat/internal/oauth"
	"github.com/mtreharne/focusbeat/internal/profile"
	xredis "github.com/mtreharne/focusbeat/internal/redis"
	"github.com/mtreharne/focusbeat/internal/server"
	servermw "github.com/mtreharne/focusbeat/internal/server/middleware"
	"github.com/mtreharne/focusbeat/internal/service/metrics"
	"github.com/mtreharne/focusbeat/internal/storage"
	"github.com/mtreharne/focusbeat/internal/version"
	"github.com/mtreharne/focusbeat/internal/xhttp/middleware"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

const (
	keyPort = "port"
	keyEnv  = "env"
)

func main() {
	_ = godotenv.Load()

	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.ReadServer()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	pool, err := initPostgres(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer pool.Close()

	backend, err := initBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close backend", xslog.Error(err))
		}
	}()

	credStore := credential.NewPostgresStore(pool)
	profileStore := profile.NewPostgresStore(pool)

	manager := oauth.NewManager(
		oauth.NewConfig(cfg.Oura, cfg.BaseURL+"/auth/callback"),
		credStore,
		logger,
	)

	clients := func(userID string) *oura.Client {
		return oura.New(manager.TokenSource(userID), oura.WithLogger(logger))
	}
	fetcher := collect.NewFetcher(clients, logger)

	handler := server.NewHandler(server.Config{
		Manager:    manager,
		States:     backend,
		Metrics:    metrics.New(cfg.Oura.Configured(), fetcher, manager, profileStore, logger),
		Learner:    profile.NewLearner(profileStore, logger),
		Clients:    clients,
		Configured: cfg.Oura.Configured(),
		APIKey:     cfg.APIKey,
		Logger:     logger,
	})

	wrapped := middleware.Chain(handler.Routes(),
		middleware.Recovery,
		middleware.Logging,
		middleware.Logger(logger),
		middleware.RequestID,
		middleware.SecurityHeaders,
		servermw.RateLimit(backend),
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.InfoContext(ctx, "starting server",
			slog.String("version", version.Get()),
			slog.String(keyPort, cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server error", xslog.Error(err))
		}
	}()

	<-done
	logger.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.InfoContext(ctx, "server stopped")
	return nil
}

func initPostgres(ctx context.Context, cfg config.Server, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.InfoContext(ctx, "initializing PostgreSQL")

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := postgres.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return pool, nil
}

func initBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (storage.Backend, error) {
	switch {
	case cfg.Env.IsProduction():
		if cfg.Redis.URL == "" {
			return nil, errors.New("REDIS_URL is required in production")
		}
	case cfg.Redis.URL == "":
		logger.InfoContext(ctx, "initializing in-memory backend", slog.String(keyEnv, string(cfg.Env)))
		return storage.NewMemoryBackend(cfg.RateLimit.Limit, cfg.RateLimit.Burst), nil
	}

	logger.InfoContext(ctx, "initializing Redis backend")
	client, err := xredis.New(ctx, xredis.Config{URL: cfg.Redis.URL})
	if err != nil {
		return nil, err
	}
	return storage.NewRedisBackend(client, int(cfg.RateLimit.Limit)), nil
}
