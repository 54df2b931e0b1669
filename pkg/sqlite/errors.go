package sqlite

import (
	"database/sql"
	"errors"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrEmptyPath               = errors.New("empty sqlite database path")
	ErrFailedToOpenDB          = errors.New("failed to open sqlite database")
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")
	ErrNoMigrations            = errors.New("no migrations provided")
	ErrHealthcheckFailed       = errors.New("healthcheck failed, connection is not available")
)

// IsNotFoundError detects sql.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}

// IsConstraintError detects any constraint violation.
func IsConstraintError(err error) bool {
	code, ok := errorCode(err)
	return ok && code&0xff == sqlite3.SQLITE_CONSTRAINT
}

// IsUniqueViolation detects UNIQUE and PRIMARY KEY violations.
func IsUniqueViolation(err error) bool {
	code, ok := errorCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsForeignKeyViolation detects FOREIGN KEY violations.
func IsForeignKeyViolation(err error) bool {
	code, ok := errorCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func errorCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}
