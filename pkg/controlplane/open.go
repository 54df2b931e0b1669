package controlplane

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/pg"
	"github.com/dmitrymomot/kbm/pkg/sqlite"
)

// Registry is an opened Store with its lifecycle hooks.
type Registry struct {
	Store       Store
	Healthcheck func(context.Context) error
	Close       func() error
}

// Open connects the configured backend and migrates it. pgCfg is only read
// for DriverPostgres.
func Open(ctx context.Context, cfg Config, pgCfg pg.Config, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = logger.Discard()
	}

	switch cfg.Driver {
	case DriverSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o750); err != nil {
			return nil, fmt.Errorf("create control plane dir: %w", err)
		}
		db, err := sqlite.Open(ctx, cfg.SQLitePath, sqlite.DefaultOptions())
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(ctx, db.DB, SQLiteMigrations(), log); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Registry{
			Store:       NewSQLiteStore(db),
			Healthcheck: sqlite.Healthcheck(db),
			Close:       db.Close,
		}, nil

	case DriverPostgres:
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, PostgresMigrations(), log); err != nil {
			pool.Close()
			return nil, err
		}
		return &Registry{
			Store:       NewPostgresStore(pool),
			Healthcheck: pg.Healthcheck(pool),
			Close:       func() error { pool.Close(); return nil },
		}, nil

	case DriverMemory:
		return &Registry{
			Store:       NewMemoryStore(),
			Healthcheck: func(context.Context) error { return nil },
			Close:       func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
