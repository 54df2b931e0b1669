package tenantdb

import (
	"context"
	"io"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

var _ tenant.Binder = (*Manager)(nil)

// Session returns the shared session of id, creating it over the cached
// handle on first access.
func (m *Manager) Session(ctx context.Context, id tenant.ID) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	h, err := m.Handle(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := newSession(h, m.log)
	m.sessions[id] = s
	return s, nil
}

// NewSession returns a session over id's pooled handle that is not cached.
// The caller closes it.
func (m *Manager) NewSession(ctx context.Context, id tenant.ID) (*Session, error) {
	h, err := m.Handle(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(h, m.log), nil
}

// Bind implements tenant.Binder. The session is scoped according to
// Config.SessionScope and closed when the request finishes. Closing a shared
// session discards its uncommitted work but keeps it cached.
func (m *Manager) Bind(ctx context.Context, t *tenant.Tenant) (context.Context, io.Closer, error) {
	var (
		s   *Session
		err error
	)
	switch m.cfg.SessionScope {
	case ScopeTenant:
		s, err = m.Session(ctx, t.ID)
	default:
		s, err = m.NewSession(ctx, t.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	m.metrics.Sessions.WithLabelValues(string(m.cfg.SessionScope)).Inc()

	if s.Pending() > 0 {
		m.log.WarnContext(ctx, "shared session carries uncommitted work from an earlier request",
			logger.TenantID(t.ID.String()))
	}
	return WithSession(ctx, s), s, nil
}
