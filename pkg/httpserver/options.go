package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address. ":0" picks a free port, see Server.Addr.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithReadTimeout: duration must be > 0")
	}
	return func(c *config) { c.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithIdleTimeout: duration must be > 0")
	}
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds draining of in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOnStart registers a callback that runs once the listener is bound.
func WithOnStart(fn func(addr string)) Option {
	if fn == nil {
		panic("WithOnStart: nil callback")
	}
	return func(c *config) { c.onStart = append(c.onStart, fn) }
}

// WithCloser registers a resource released after the server has drained.
// Closers run in reverse registration order, so dependencies opened first
// are closed last.
func WithCloser(name string, fn func() error) Option {
	if fn == nil {
		panic("WithCloser: nil closer")
	}
	return func(c *config) { c.closers = append(c.closers, closer{name: name, fn: fn}) }
}
