package tenant

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// ErrorHandler writes the response for a request the tenant layer rejected.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	cache        Cache
	cacheTTL     time.Duration
	errorHandler ErrorHandler
	skipPaths    []string
	reserved     ReservedSet
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithCache sets the tenant record cache. Defaults to a MemoryCache.
func WithCache(cache Cache) Option {
	return func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithCacheTTL sets how long resolved records stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = ttl
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass resolution entirely,
// e.g. health probes hit by IP.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithReservedIdentifiers replaces DefaultReserved.
func WithReservedIdentifiers(labels ...string) Option {
	return func(c *config) {
		c.reserved = NewReservedSet(labels...)
	}
}

// WithLogger sets the logger for resolution failures and teardown errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaultConfig() *config {
	return &config{
		cache:        NewMemoryCache(DefaultCacheSize),
		cacheTTL:     DefaultCacheTTL,
		errorHandler: DefaultErrorHandler,
		reserved:     NewReservedSet(DefaultReserved...),
		logger:       logger.Discard(),
	}
}

// DefaultErrorHandler answers with the status from StatusCode and a short
// plain-text body that never echoes internal details.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	switch code {
	case http.StatusNotFound:
		http.Error(w, "Not found", code)
	case http.StatusForbidden:
		http.Error(w, "Forbidden", code)
	case http.StatusUnauthorized:
		http.Error(w, "Unauthorized", code)
	default:
		http.Error(w, "Internal server error", code)
	}
}
