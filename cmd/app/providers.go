package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
	"github.com/yanqian/wanderwise/internal/domain/vibe"
	"github.com/yanqian/wanderwise/internal/infra/calendar/calendly"
	"github.com/yanqian/wanderwise/internal/infra/config"
	"github.com/yanqian/wanderwise/internal/infra/events/eventbrite"
	"github.com/yanqian/wanderwise/internal/infra/historyrepo"
	"github.com/yanqian/wanderwise/internal/infra/llm/chatgpt"
	"github.com/yanqian/wanderwise/internal/infra/llm/tokencount"
	"github.com/yanqian/wanderwise/internal/infra/vibestore"
)

func provideRecommenderConfig(cfg *config.Config) recommender.Config {
	return recommender.Config{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		Prompt:        cfg.Recommender.Prompt,
		MaxToolRounds: cfg.Recommender.MaxToolRounds,
		HistoryLimit:  cfg.History.Limit,
	}
}

func provideVibeConfig(cfg *config.Config) vibe.Config {
	return vibe.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Prompt:      cfg.Vibe.Prompt,
		PromptCount: cfg.Vibe.PromptCount,
		CacheTTL:    cfg.Vibe.CacheTTL,
	}
}

func provideChatGPTClient(cfg *config.Config) *chatgpt.Client {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideEventbriteClient(cfg *config.Config, logger *slog.Logger) *eventbrite.Client {
	return eventbrite.NewClient(cfg.Events.BaseURL, cfg.Events.APIKey, logger)
}

func provideCalendlyClient(cfg *config.Config, logger *slog.Logger) *calendly.Client {
	return calendly.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.APIKey, cfg.Calendar.UserURI, logger)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *tokencount.Counter {
	return tokencount.NewCounter(cfg.LLM.Model, logger)
}

func provideQueryLog(cfg *config.Config, logger *slog.Logger) recommender.QueryLog {
	fallback := historyrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("history postgres repository enabled")
	return historyrepo.NewPostgresRepository(pool)
}

func provideVibeStore(cfg *config.Config, logger *slog.Logger) vibe.Store {
	if cfg.Vibe.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return vibestore.NewMemoryStore(cfg.Vibe.CacheTTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return vibestore.NewMemoryStore(cfg.Vibe.CacheTTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("vibe valkey store enabled", "addr", cfg.Vibe.Redis.Addr)
			return vibestore.NewValkeyStore(client, "vibe", cfg.Vibe.CacheTTL)
		}
	}
	return vibestore.NewMemoryStore(cfg.Vibe.CacheTTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Vibe.Redis.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Vibe.Redis.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Vibe.Redis.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
