// Package pg connects to PostgreSQL through pgx/v5 and applies goose
// migrations from an fs.FS. It backs the optional Postgres control plane.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, controlplane.PostgresMigrations(), log); err != nil {
//		return err
//	}
//
// Connect retries with a linearly growing delay so the service can start
// alongside its database. Error helpers classify pgx errors by SQLSTATE.
package pg
