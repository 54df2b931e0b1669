package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/sqlite"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// Handle is an open, pooled connection to one tenant's database file.
// Handles are owned by the Manager; callers never close them.
type Handle struct {
	id   tenant.ID
	path string
	db   *sqlx.DB
}

func (h *Handle) ID() tenant.ID { return h.id }
func (h *Handle) Path() string  { return h.path }
func (h *Handle) DB() *sqlx.DB  { return h.db }

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSchema replaces the goose migrations applied by CreateDatabase.
func WithSchema(fn SchemaFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.schema = fn
		}
	}
}

// WithMetrics instruments the manager.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// Manager caches one Handle and at most one shared Session per tenant.
//
// Map reads and writes happen under mu. First access to a tenant is
// collapsed through a singleflight group, and opening, creating or deleting
// a tenant's file happens under that tenant's lifecycle lock, so a handle is
// never constructed twice and never resurrects a file that is being deleted.
type Manager struct {
	cfg     Config
	opts    sqlite.Options
	log     *slog.Logger
	schema  SchemaFunc
	metrics *Metrics

	mu       sync.Mutex
	handles  map[tenant.ID]*Handle
	sessions map[tenant.ID]*Session
	locks    map[tenant.ID]*tenantLock
	closed   bool

	group singleflight.Group
}

type tenantLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a Manager. It opens nothing until a tenant is accessed.
func New(cfg Config, opts ...Option) *Manager {
	if cfg.SessionScope == "" {
		cfg.SessionScope = ScopeRequest
	}
	m := &Manager{
		cfg:      cfg,
		opts:     cfg.sqliteOptions(),
		log:      logger.Discard(),
		metrics:  NewMetrics(),
		handles:  make(map[tenant.ID]*Handle),
		sessions: make(map[tenant.ID]*Session),
		locks:    make(map[tenant.ID]*tenantLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("tenantdb"))
	if m.schema == nil {
		m.schema = GooseSchema(m.log)
	}
	return m
}

// Metrics returns the manager's collectors.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// Path returns where the database of id lives. It does not touch the disk.
func (m *Manager) Path(id tenant.ID) string {
	return filepath.Join(m.cfg.DataDir, id.String()+".db")
}

// Handle returns the cached handle for id, opening it on first access.
// A tenant without a database file yields ErrDatabaseNotFound and nothing
// is cached.
func (m *Manager) Handle(ctx context.Context, id tenant.ID) (*Handle, error) {
	if h, err := m.cachedHandle(id); h != nil || err != nil {
		return h, err
	}

	v, err, _ := m.group.Do(id.String(), func() (any, error) {
		unlock := m.lockTenant(id)
		defer unlock()

		if h, err := m.cachedHandle(id); h != nil || err != nil {
			return h, err
		}

		path := m.Path(id)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, id)
			}
			return nil, err
		}

		// The first caller's cancellation must not fail the callers sharing
		// this open.
		h, err := m.open(context.WithoutCancel(ctx), id, path)
		if err != nil {
			return nil, err
		}
		return h, m.store(h)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Len returns the number of cached handles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Close closes every cached session and handle. The manager rejects further
// use.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	handles := m.handles
	sessions := m.sessions
	m.handles = make(map[tenant.ID]*Handle)
	m.sessions = make(map[tenant.ID]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	for _, h := range handles {
		errs = append(errs, h.db.Close())
	}
	m.metrics.OpenHandles.Set(0)
	return errors.Join(errs...)
}

func (m *Manager) cachedHandle(id tenant.ID) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	return m.handles[id], nil
}

func (m *Manager) open(ctx context.Context, id tenant.ID, path string) (*Handle, error) {
	db, err := sqlite.Open(ctx, path, m.opts)
	m.metrics.HandleOpens.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		m.log.ErrorContext(ctx, "failed to open tenant database", logger.TenantID(id.String()), logger.Error(err))
		return nil, err
	}
	m.log.DebugContext(ctx, "tenant database opened", logger.TenantID(id.String()), slog.String("path", path))
	return &Handle{id: id, path: path, db: db}, nil
}

// store caches h, closing it if the manager was closed meanwhile.
func (m *Manager) store(h *Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		_ = h.db.Close()
		return ErrManagerClosed
	}
	m.handles[h.id] = h
	m.metrics.OpenHandles.Set(float64(len(m.handles)))
	return nil
}

// evict removes id's cached session and handle and returns them for closing.
func (m *Manager) evict(id tenant.ID) (*Session, *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, h := m.sessions[id], m.handles[id]
	delete(m.sessions, id)
	delete(m.handles, id)
	m.metrics.OpenHandles.Set(float64(len(m.handles)))
	return s, h
}

// lockTenant serializes lifecycle operations on one tenant's file.
func (m *Manager) lockTenant(id tenant.ID) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &tenantLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
