package main

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/backend"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/db"
	"github.com/jonathan/form-autofill/internal/experience"
	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/jonathan/form-autofill/internal/store"
	"go.uber.org/zap"
)

// app holds everything a command needs, built from the merged config.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	closers []func()
}

// newApp loads the config file (if any), applies the environment and flags,
// validates, and builds the logger.
func newApp() (*app, error) {
	cfg := config.Default()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(config.Default())
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.onClose(func() { _ = logger.Sync() })
	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// database connects when database_url is set; it returns nil otherwise.
func (a *app) database(ctx context.Context) (*db.DB, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.onClose(database.Close)
	if err := database.Migrate(ctx); err != nil {
		return nil, err
	}
	return database, nil
}

// store returns the profile store: PostgreSQL when configured, otherwise an
// in-memory store seeded from the profile file.
func (a *app) store(ctx context.Context, profileName string) (store.Store, error) {
	database, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		return database.Profile(profileName)
	}

	mem := store.NewMemory()
	if a.cfg.Profile == "" {
		a.logger.Warn("no database_url or profile configured, store is empty")
		return mem, nil
	}
	profile, err := experience.LoadProfile(a.cfg.Profile)
	if err != nil {
		return nil, err
	}
	if err := experience.Import(ctx, mem, profile); err != nil {
		return nil, err
	}
	return mem, nil
}

// transport selects the classification backend. It returns nil when the
// backend is disabled, which leaves rule-based classification only.
func (a *app) transport(ctx context.Context) (backend.Transport, error) {
	if !a.cfg.Enabled {
		return nil, nil
	}
	if !a.cfg.UseCustomAPI {
		return backend.NewHostedTransport(a.cfg.HostedURL, a.cfg.SessionToken, nil), nil
	}
	return a.directTransport(ctx)
}

// directTransport calls the configured LLM provider directly.
func (a *app) directTransport(ctx context.Context) (*backend.DirectTransport, error) {
	client, err := llm.NewClient(ctx, a.cfg.LLMConfig(), a.cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.onClose(func() { _ = client.Close() })
	return backend.NewDirectTransport(client), nil
}

// cache returns the shared Redis cache when redis_url is set, otherwise an
// in-process one. An unreachable Redis falls back to memory.
func (a *app) cache(ctx context.Context) cache.Store {
	if a.cfg.RedisURL == "" {
		return cache.NewMemory(cache.DefaultTTL)
	}
	rc, err := cache.ConnectRedis(ctx, a.cfg.RedisURL, cache.DefaultTTL, a.logger)
	if err != nil {
		a.logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewMemory(cache.DefaultTTL)
	}
	a.onClose(func() { _ = rc.Close() })
	return rc
}
