package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joshdurbin/url-mapper/internal/config"
	"github.com/joshdurbin/url-mapper/internal/repository"
	"github.com/joshdurbin/url-mapper/internal/repository/memory"
	"github.com/joshdurbin/url-mapper/internal/repository/postgres"
	"github.com/joshdurbin/url-mapper/internal/repository/redis"
	"github.com/joshdurbin/url-mapper/internal/repository/sqlite"
)

// openStore builds the store selected by the database driver. The caller owns
// the returned store and must close it.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Store, error) {
	db := cfg.Database

	switch db.Driver {
	case config.DriverSQLite:
		sqliteCfg := sqlite.DefaultConfig(db.Path)
		sqliteCfg.MaxOpenConns = db.MaxOpenConns
		sqliteCfg.AcquireTimeout = db.AcquireTimeout

		store, err := sqlite.New(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		logger.Info().Str("path", db.Path).Int("max_open_conns", db.MaxOpenConns).Msg("using sqlite store")
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            db.DSN,
			MaxConns:       int32(db.MaxOpenConns),
			AcquireTimeout: db.AcquireTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		logger.Info().Int("max_conns", db.MaxOpenConns).Msg("using postgres store")
		return store, nil

	case config.DriverRedis:
		store, err := redis.New(ctx, redis.Config{
			Address:     cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    db.MaxOpenConns,
			PoolTimeout: db.AcquireTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis store: %w", err)
		}
		logger.Info().Str("address", cfg.Redis.Address).Int("pool_size", db.MaxOpenConns).Msg("using redis store")
		return store, nil

	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store, mappings are lost on restart")
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown database driver %q", db.Driver)
}
