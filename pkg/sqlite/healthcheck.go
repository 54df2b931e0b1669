package sqlite

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Healthcheck returns a closure that pings db, for readiness endpoints.
func Healthcheck(db *sqlx.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
