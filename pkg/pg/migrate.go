package pg

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// Migrate applies the goose migrations at the root of fsys to the database
// behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, log *slog.Logger) error {
	if fsys == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrNoMigrations)
	}
	if log == nil {
		log = logger.Discard()
	}

	// goose needs database/sql; this view shares the pool's connections.
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", logger.Error(err))
		}
	}()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			logger.Duration(r.Duration),
		)
	}
	return nil
}
