package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// Migrate applies every pending migration found at the root of fsys.
//
// It uses a goose Provider bound to db instead of goose's package-level
// state, so migrations of different databases may run concurrently.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, log *slog.Logger) error {
	if fsys == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrNoMigrations)
	}
	if log == nil {
		log = logger.Discard()
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.DebugContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			logger.Duration(r.Duration),
		)
	}
	return nil
}

// Version returns the current migration version of db.
func Version(ctx context.Context, db *sql.DB, fsys fs.FS) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
