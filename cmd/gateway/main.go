package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	anthropicapi "github.com/pysensei/ai-gateway/internal/api/anthropic"
	"github.com/pysensei/ai-gateway/internal/config"
	"github.com/pysensei/ai-gateway/internal/quota"
	"github.com/pysensei/ai-gateway/internal/quota/memory"
	redisstore "github.com/pysensei/ai-gateway/internal/quota/redis"
	sqlitestore "github.com/pysensei/ai-gateway/internal/quota/sqlite"
	"github.com/pysensei/ai-gateway/internal/server"
	"github.com/pysensei/ai-gateway/internal/telemetry"
	"github.com/pysensei/ai-gateway/internal/tokens"
)

func main() {
	// Best-effort: a missing .env is fine in production.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("SENSEI_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown, err := telemetry.Init(logger)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdown(context.Background())

	store, err := buildQuotaStore(cfg, logger)
	if err != nil {
		logger.Error("failed to build quota store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	window, err := cfg.Trial.WindowDuration()
	if err != nil {
		logger.Error("invalid trial window", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gate := quota.NewGate(store,
		quota.WithLimit(cfg.Trial.Limit),
		quota.WithWindow(window),
		quota.WithLogger(logger),
	)

	var client *anthropicapi.Client
	if cfg.Anthropic.HasKey() {
		var clientOpts []anthropicapi.ClientOption
		if cfg.Anthropic.BaseURL != "" {
			clientOpts = append(clientOpts, anthropicapi.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		client = anthropicapi.NewClient(cfg.Anthropic.APIKey, clientOpts...)
	} else {
		logger.Warn("no upstream API key configured, trial endpoint will answer 503")
	}

	handlerOpts := []server.TrialHandlerOption{
		server.WithModel(cfg.Anthropic.Model),
		server.WithMaxTokens(cfg.Anthropic.MaxTokens),
	}
	if estimator, err := tokens.NewEstimator(); err == nil {
		handlerOpts = append(handlerOpts, server.WithEstimator(estimator))
	} else {
		logger.Warn("token estimator unavailable", slog.String("error", err.Error()))
	}

	srv := server.New(cfg.Server.Port, logger)
	srv.MountTrial(cfg.Trial.Path, server.NewTrialHandler(gate, client, handlerOpts...))

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildQuotaStore(cfg *config.Config, logger *slog.Logger) (quota.Store, error) {
	switch cfg.Quota.Store {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Quota.Redis.Addr,
			Password: cfg.Quota.Redis.Password,
			DB:       cfg.Quota.Redis.DB,
		})
		logger.Info("using redis quota store", slog.String("addr", cfg.Quota.Redis.Addr))
		return redisstore.New(client), nil
	case "sqlite":
		logger.Info("using sqlite quota store", slog.String("path", cfg.Quota.SQLite.Path))
		return sqlitestore.New(cfg.Quota.SQLite.Path)
	default:
		return memory.New(cfg.Quota.Capacity), nil
	}
}
