package sqlite

import "time"

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Options tune a single database handle.
type Options struct {
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration
	// MaxOpenConns caps the pool. WAL lets readers run beside one writer.
	MaxOpenConns int
	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int
	// ConnMaxIdleTime closes connections idle for longer.
	ConnMaxIdleTime time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}
