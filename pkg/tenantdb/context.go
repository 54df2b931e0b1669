package tenantdb

import "context"

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session bound to ctx, or ErrNoSession.
// There is deliberately no fallback database.
func SessionFromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
