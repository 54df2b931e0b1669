package tenantdb

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/kbm/pkg/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SchemaFunc brings a freshly created tenant database to the current schema.
type SchemaFunc func(ctx context.Context, db *sqlx.DB) error

// Migrations returns the tenant schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// GooseSchema applies the embedded migrations with goose.
func GooseSchema(log *slog.Logger) SchemaFunc {
	return func(ctx context.Context, db *sqlx.DB) error {
		return sqlite.Migrate(ctx, db.DB, Migrations(), log)
	}
}
