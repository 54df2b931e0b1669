// Package sqlite opens file-backed SQLite databases through the pure-Go
// modernc.org/sqlite driver and applies goose migrations to them.
//
// Every connection is opened with foreign keys enforced, WAL journaling and a
// busy timeout, set through DSN pragmas so they hold for each pooled
// connection rather than just the first one.
//
//	db, err := sqlite.Open(ctx, "data/tenants/acme.db", sqlite.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	if err := sqlite.Migrate(ctx, db.DB, migrations, log); err != nil {
//		return err
//	}
//
// Error helpers classify driver errors without importing the driver's
// result codes at call sites.
package sqlite
