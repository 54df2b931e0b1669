package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// TokenExtractorFunc pulls a raw token out of a request. It returns an
// empty string when the request carries none.
type TokenExtractorFunc func(r *http.Request) string

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

type middlewareConfig struct {
	extractor TokenExtractorFunc
	log       *slog.Logger
}

type MiddlewareOption func(*middlewareConfig)

// WithExtractor replaces BearerTokenExtractor.
func WithExtractor(fn TokenExtractorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.extractor = fn
		}
	}
}

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Middleware attaches the principal of a valid token to the request
// context. Requests without a valid token pass through anonymous.
func Middleware(svc *Service, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if svc == nil {
		panic("identity: nil service")
	}
	cfg := middlewareConfig{extractor: BearerTokenExtractor, log: logger.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := cfg.extractor(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := svc.Parse(raw)
			if err != nil {
				cfg.log.DebugContext(r.Context(), "ignoring bearer token", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithPrincipal(r.Context(), NewPrincipal(claims.Subject, claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
