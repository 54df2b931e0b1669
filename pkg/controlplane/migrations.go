package controlplane

import (
	"embed"
	"io/fs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// SQLiteMigrations returns the registry schema for SQLite.
func SQLiteMigrations() fs.FS { return subFS("migrations/sqlite") }

// PostgresMigrations returns the registry schema for PostgreSQL.
func PostgresMigrations() fs.FS { return subFS("migrations/postgres") }

func subFS(dir string) fs.FS {
	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
