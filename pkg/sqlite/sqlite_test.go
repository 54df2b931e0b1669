package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/sqlite"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "test.db"), sqlite.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(ctx, db.DB, os.DirFS("testdata/migrations"), logger.Discard()))
	return db.DB
}

func TestDSN(t *testing.T) {
	t.Parallel()

	dsn := sqlite.DSN("/tmp/acme.db", sqlite.Options{BusyTimeout: 2 * time.Second})
	assert.Equal(t, "/tmp/acme.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate&_pragma=busy_timeout(2000)", dsn)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := sqlite.Open(context.Background(), "", sqlite.DefaultOptions())
		assert.ErrorIs(t, err, sqlite.ErrEmptyPath)
	})

	t.Run("creates file with foreign keys on", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "fk.db")

		db, err := sqlite.Open(ctx, path, sqlite.DefaultOptions())
		require.NoError(t, err)
		defer db.Close()

		assert.FileExists(t, path)
		on, err := sqlite.ForeignKeysEnabled(ctx, db)
		require.NoError(t, err)
		assert.True(t, on)
		assert.NoError(t, sqlite.Healthcheck(db)(ctx))
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		_, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "nope", "x.db"), sqlite.DefaultOptions())
		assert.ErrorIs(t, err, sqlite.ErrFailedToOpenDB)
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMigrated(t)

	version, err := sqlite.Version(ctx, db, os.DirFS("testdata/migrations"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	// Re-running is a no-op.
	require.NoError(t, sqlite.Migrate(ctx, db, os.DirFS("testdata/migrations"), nil))

	err = sqlite.Migrate(ctx, db, nil, nil)
	assert.ErrorIs(t, err, sqlite.ErrNoMigrations)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMigrated(t)

	_, err := db.ExecContext(ctx, "INSERT INTO parents (name) VALUES ('a')")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO parents (name) VALUES ('a')")
	require.Error(t, err)
	assert.True(t, sqlite.IsUniqueViolation(err))
	assert.True(t, sqlite.IsConstraintError(err))
	assert.False(t, sqlite.IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, "INSERT INTO children (parent_id) VALUES (42)")
	require.Error(t, err)
	assert.True(t, sqlite.IsForeignKeyViolation(err))
	assert.True(t, sqlite.IsConstraintError(err))

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM parents WHERE id = 99").Scan(&name)
	assert.True(t, sqlite.IsNotFoundError(err))

	assert.False(t, sqlite.IsNotFoundError(nil))
	assert.False(t, sqlite.IsConstraintError(errors.New("plain")))
}
