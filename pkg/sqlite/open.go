package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DSN builds the connection string for path with the pragmas every handle
// needs. Transactions begin IMMEDIATE so a session that flushes takes the
// write lock up front instead of failing on upgrade.
func DSN(path string, opts Options) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_txlock=immediate",
	}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// Open opens the database at path, creating the file if it is missing, and
// verifies the connection. Callers that must not create files check for the
// file first.
func Open(ctx context.Context, path string, opts Options) (*sqlx.DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	db, err := sqlx.Open(DriverName, DSN(path, opts))
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}
	return db, nil
}

// ForeignKeysEnabled reports whether the connection enforces foreign keys.
func ForeignKeysEnabled(ctx context.Context, db sqlx.QueryerContext) (bool, error) {
	var on int
	if err := sqlx.GetContext(ctx, db, &on, "PRAGMA foreign_keys"); err != nil {
		return false, err
	}
	return on == 1, nil
}
