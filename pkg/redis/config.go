package redis

import "time"

// Config holds connection settings. The resolver cache is the only consumer,
// so the URL is optional and an empty one leaves Redis disabled.
type Config struct {
	// ConnectionURL has the form "redis://:password@localhost:6379/0".
	ConnectionURL  string        `env:"REDIS_URL"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"kbm:tenant:"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a connection URL was configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
