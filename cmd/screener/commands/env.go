package commands

import (
	"context"
	"fmt"

	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/config"
	"github.com/wonny/multibagger/pkg/database"
	"github.com/wonny/multibagger/pkg/logger"
	"github.com/wonny/multibagger/pkg/redis"
)

// runtimeEnv bundles what every command needs
type runtimeEnv struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	snapshot *strategyconfig.PolicySnapshot
}

// loadEnv loads process config, logger and the strategy policy
func loadEnv() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	path := strategyPath
	if path == "" {
		path = cfg.Screening.StrategyPath
	}

	strategy, raw, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", path, err)
	}

	snapshot, err := strategyconfig.NewPolicySnapshot(strategy, raw)
	if err != nil {
		return nil, fmt.Errorf("policy snapshot: %w", err)
	}

	return &runtimeEnv{
		cfg:      cfg,
		log:      logger.New(cfg),
		strategy: strategy,
		snapshot: snapshot,
	}, nil
}

// openDB connects to PostgreSQL and applies the schema
func (e *runtimeEnv) openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.New(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// openCache returns a cache over Redis, or a no-op cache when Redis is disabled
func (e *runtimeEnv) openCache(ctx context.Context) (*redis.Client, *redis.Cache, error) {
	client, err := redis.New(ctx, e.cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, redis.NewCache(client, e.cfg.Redis.KeyPrefix), nil
}
