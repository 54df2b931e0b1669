package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// Binder attaches tenant storage to a request context. The returned closer
// runs when the request finishes, whatever its outcome.
type Binder interface {
	Bind(ctx context.Context, t *Tenant) (context.Context, io.Closer, error)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func(ctx context.Context, t *Tenant) (context.Context, io.Closer, error)

func (f BinderFunc) Bind(ctx context.Context, t *Tenant) (context.Context, io.Closer, error) {
	return f(ctx, t)
}

// Middleware resolves the request host to a tenant relative to baseDomain.
//
// Root-domain requests continue with ScopeRoot and no storage. Requests for
// an active tenant continue with the tenant and whatever binder attached.
// Everything else is rejected through the error handler: unknown, reserved
// or malformed labels with NotFound, inactive tenants with Forbidden, and
// tenants whose storage cannot be attached with Unavailable.
//
// A nil binder resolves tenants without attaching storage.
func Middleware(baseDomain string, provider Provider, binder Binder, opts ...Option) func(http.Handler) http.Handler {
	if provider == nil {
		panic("tenant: nil provider")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger.With(logger.Component("tenant"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			target, err := ParseHost(r.Host, baseDomain)
			if err != nil {
				log.DebugContext(ctx, "host rejected", logger.Host(r.Host), logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}
			if target.Root {
				next.ServeHTTP(w, r.WithContext(WithRoot(ctx)))
				return
			}

			t, err := lookup(ctx, cfg, provider, target.ID)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					log.ErrorContext(ctx, "tenant lookup failed", logger.TenantID(target.ID.String()), logger.Error(err))
				}
				cfg.errorHandler(w, r, err)
				return
			}
			if !t.Active() {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			ctx = WithTenant(ctx, t)
			if binder != nil {
				bound, closer, err := binder.Bind(ctx, t)
				if err != nil {
					log.ErrorContext(ctx, "tenant storage unavailable", logger.TenantID(t.ID.String()), logger.Error(err))
					cfg.errorHandler(w, r, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err))
					return
				}
				ctx = bound
				if closer != nil {
					defer func() {
						if err := closer.Close(); err != nil {
							log.WarnContext(ctx, "tenant session teardown failed", logger.Error(err))
						}
					}()
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookup consults the reserved set, then the cache, then the provider.
// Only active records are cached.
func lookup(ctx context.Context, cfg *config, provider Provider, id ID) (*Tenant, error) {
	if cfg.reserved.Contains(id) {
		return nil, ErrReservedIdentifier
	}
	if t, ok := cfg.cache.Get(ctx, id); ok {
		return t, nil
	}

	t, err := provider.FindByIdentifier(ctx, id)
	switch {
	case err != nil && kindOf(err) == nil:
		return nil, errors.Join(ErrUnavailable, err)
	case err != nil:
		return nil, err
	case t == nil:
		return nil, ErrTenantNotFound
	}

	if t.Active() {
		cfg.cache.Set(ctx, t, cfg.cacheTTL)
	}
	return t, nil
}

// kindOf returns the error kind err wraps, or nil.
func kindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
