package tenantdb

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

var (
	// ErrDatabaseNotFound is returned when a tenant has no database file.
	ErrDatabaseNotFound = fmt.Errorf("%w: tenant database file", tenant.ErrNotFound)

	// ErrDatabaseExists is returned by CreateDatabase when the file is already there.
	ErrDatabaseExists = errors.New("tenant database already exists")

	// ErrNoSession is returned by the facade when the context carries no session.
	ErrNoSession = fmt.Errorf("%w: no tenant session in context", tenant.ErrUnavailable)

	// ErrRecordNotFound is returned by Get when no row matches.
	ErrRecordNotFound = fmt.Errorf("%w: record", tenant.ErrNotFound)

	// ErrMissingPrimaryKey is returned when deleting an entity that was never stored.
	ErrMissingPrimaryKey = errors.New("entity has no primary key value")

	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("tenant database manager is closed")

	ErrFailedToApplySchema = errors.New("failed to apply tenant schema")
)
