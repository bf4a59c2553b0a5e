package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/careerpilot/jobscout/internal/config"
	"github.com/careerpilot/jobscout/internal/jsearch"
	"github.com/careerpilot/jobscout/internal/pipeline"
	"github.com/careerpilot/jobscout/internal/secrets"
	"github.com/careerpilot/jobscout/internal/store"
)

// setup builds the full dependency chain behind a pipeline: database, seen
// cache, listing client. The returned cleanup closes everything that was
// opened and is safe to call after a partial failure.
func setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, func(), error) {
	db, err := store.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connecting to database: %w", err)
	}

	cleanup := func() { db.Close() }

	var seen pipeline.SeenCache
	if cfg.Store.RedisURL != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.Store.RedisURL)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connecting to redis: %w", err)
		}
		seen = store.NewSeenURLCache(rdb)
		closeDB := cleanup
		cleanup = func() {
			rdb.Close()
			closeDB()
		}
	} else {
		logger.Info("redis url not set, duplicate detection relies on the database only")
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		// The pipeline treats a missing key as "source disabled" rather
		// than a fatal error, matching a run with zero fetched postings.
		logger.Warn("job listing source disabled", zap.Error(err))
	}

	client := jsearch.New(apiKey, logger)
	if cfg.Source.Country != "" {
		client.Country = cfg.Source.Country
	}
	if cfg.Source.DatePosted != "" {
		client.DatePosted = cfg.Source.DatePosted
	}
	if len(cfg.Source.Platforms) > 0 {
		client.Platforms = cfg.Source.Platforms
	}
	if cfg.Source.RequestInterval > 0 {
		client.Limiter = rate.NewLimiter(rate.Every(cfg.Source.RequestInterval), 1)
	}

	opts := pipeline.Options{
		Concurrency:          cfg.Search.Concurrency,
		DefaultLimit:         cfg.Search.Limit,
		PerTaskResults:       cfg.Search.PerTaskResults,
		RecentPerTaskResults: cfg.Search.RecentPerTaskResults,
	}

	return pipeline.New(db, client, seen, logger, opts), cleanup, nil
}

func resolveAPIKey(cfg *config.Config) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "rapidapi key",
		Value: cfg.Source.APIKey,
		File:  cfg.Source.APIKeyFile,
	})
}
