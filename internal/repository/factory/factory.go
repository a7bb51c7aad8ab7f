// Package factory opens the configured database backend and builds the repositories on top of it.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/repository/postgres"
	"github.com/prn-tf/marquee/internal/repository/sqlite"
)

// Database is an open backend: health checks plus migrations.
type Database interface {
	repository.DatabaseHealth
	repository.Migrator
}

// Result contains the created repositories and database connection.
type Result struct {
	Repos    *repository.Repositories
	Database Database
}

// Open connects to the backend named by cfg.Driver and builds the repositories.
// Migrations are not applied; callers decide when to run them.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	switch cfg.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	sqliteCfg := sqlite.DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sqliteCfg.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sqliteCfg.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		sqliteCfg.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		sqliteCfg.SynchronousMode = cfg.SynchronousMode
	}

	db, err := sqlite.NewDB(ctx, sqliteCfg, logger.With().Str("component", "sqlite").Logger())
	if err != nil {
		return nil, err
	}

	return &Result{
		Repos: &repository.Repositories{
			Manager: sqlite.NewManagerRepository(db),
			Movie:   sqlite.NewMovieRepository(db),
		},
		Database: db,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	db, err := postgres.NewDB(ctx, cfg, logger.With().Str("component", "postgres").Logger())
	if err != nil {
		return nil, err
	}

	return &Result{
		Repos: &repository.Repositories{
			Manager: postgres.NewManagerRepository(db),
			Movie:   postgres.NewMovieRepository(db),
		},
		Database: db,
	}, nil
}
