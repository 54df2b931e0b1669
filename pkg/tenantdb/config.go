package tenantdb

import (
	"time"

	"github.com/dmitrymomot/kbm/pkg/sqlite"
)

// SessionScope selects how sessions are attached to requests.
type SessionScope string

const (
	// ScopeRequest opens a fresh session per request.
	ScopeRequest SessionScope = "request"
	// ScopeTenant reuses one cached session per tenant.
	ScopeTenant SessionScope = "tenant"
)

type Config struct {
	DataDir         string        `env:"TENANT_DATA_DIR" envDefault:"data/tenants"`    // DataDir holds one <id>.db file per tenant.
	MaxOpenConns    int           `env:"TENANT_DB_MAX_OPEN_CONNS" envDefault:"4"`      // MaxOpenConns caps each tenant's pool.
	MaxIdleConns    int           `env:"TENANT_DB_MAX_IDLE_CONNS" envDefault:"2"`      // MaxIdleConns caps idle connections per tenant.
	ConnMaxIdleTime time.Duration `env:"TENANT_DB_CONN_MAX_IDLE_TIME" envDefault:"5m"` // ConnMaxIdleTime closes idle connections.
	BusyTimeout     time.Duration `env:"TENANT_DB_BUSY_TIMEOUT" envDefault:"5s"`       // BusyTimeout is how long writers wait on a locked file.
	SessionScope    SessionScope  `env:"SESSION_SCOPE" envDefault:"request"`           // SessionScope is "request" or "tenant".
}

func (c Config) sqliteOptions() sqlite.Options {
	opts := sqlite.DefaultOptions()
	if c.MaxOpenConns > 0 {
		opts.MaxOpenConns = c.MaxOpenConns
	}
	if c.MaxIdleConns > 0 {
		opts.MaxIdleConns = c.MaxIdleConns
	}
	if c.ConnMaxIdleTime > 0 {
		opts.ConnMaxIdleTime = c.ConnMaxIdleTime
	}
	if c.BusyTimeout > 0 {
		opts.BusyTimeout = c.BusyTimeout
	}
	return opts
}
