package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

// MaxNameLength bounds company names.
const MaxNameLength = 255

// Databases is the slice of tenantdb.Manager the service drives.
type Databases interface {
	CreateDatabase(ctx context.Context, id tenant.ID) (string, error)
	DeleteDatabase(ctx context.Context, id tenant.ID) error
	Stats(ctx context.Context, id tenant.ID) (tenantdb.Stats, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache sets the resolver cache invalidated on lifecycle changes.
func WithCache(c tenant.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithReserved replaces tenant.DefaultReserved.
func WithReserved(labels ...string) ServiceOption {
	return func(s *Service) {
		s.reserved = tenant.NewReservedSet(labels...)
	}
}

// WithQuotas sets the limits assigned to newly provisioned tenants.
// Non-positive fields keep their defaults.
func WithQuotas(q tenant.Quotas) ServiceOption {
	return func(s *Service) {
		if q.MaxUsers > 0 {
			s.quotas.MaxUsers = q.MaxUsers
		}
		if q.MaxItems > 0 {
			s.quotas.MaxItems = q.MaxItems
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service runs tenant lifecycle operations against the registry and the
// tenant databases.
type Service struct {
	store    Store
	dbs      Databases
	cache    tenant.Cache
	reserved tenant.ReservedSet
	quotas   tenant.Quotas
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store Store, dbs Databases, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		dbs:      dbs,
		cache:    tenant.NopCache{},
		reserved: tenant.NewReservedSet(tenant.DefaultReserved...),
		quotas:   tenant.DefaultQuotas(),
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("controlplane"))
	return s
}

// SignupRequest is the input of Provision.
type SignupRequest struct {
	Identifier string
	Name       string
}

// Provision validates the identifier, creates the tenant database and
// registers the tenant. If registration fails the new database is removed,
// so a file never exists without a record.
func (s *Service) Provision(ctx context.Context, req SignupRequest) (*tenant.Tenant, error) {
	name := norm.NFC.String(strings.TrimSpace(req.Name))
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidName
	}
	id, err := s.validate(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	path, err := s.dbs.CreateDatabase(ctx, id)
	if err != nil {
		if errors.Is(err, tenantdb.ErrDatabaseExists) {
			return nil, errors.Join(ErrAlreadyExists, err)
		}
		return nil, fmt.Errorf("create database for %s: %w", id, err)
	}

	now := s.now().UTC()
	t := &tenant.Tenant{
		ID:           id,
		Name:         name,
		Status:       tenant.StatusActive,
		DatabasePath: path,
		Quotas:       s.quotas,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		if derr := s.dbs.DeleteDatabase(ctx, id); derr != nil {
			s.log.ErrorContext(ctx, "failed to remove database after registration failure",
				logger.TenantID(id.String()), logger.Error(derr))
		}
		return nil, fmt.Errorf("register tenant %s: %w", id, err)
	}

	s.log.InfoContext(ctx, "tenant provisioned", logger.TenantID(id.String()))
	return t, nil
}

// Availability reports whether raw can be provisioned. Format and reserved
// problems are reported through Reason rather than as errors.
type Availability struct {
	ID        tenant.ID `json:"subdomain"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

func (s *Service) Availability(ctx context.Context, raw string) (Availability, error) {
	id, err := s.validate(ctx, raw)
	switch {
	case err == nil:
		return Availability{ID: id, Available: true}, nil
	case errors.Is(err, tenant.ErrInvalidIdentifier):
		return Availability{ID: tenant.ID(strings.ToLower(strings.TrimSpace(raw))), Reason: "invalid"}, nil
	case errors.Is(err, tenant.ErrReservedIdentifier):
		return Availability{ID: id, Reason: "reserved"}, nil
	case errors.Is(err, ErrAlreadyExists):
		return Availability{ID: id, Reason: "taken"}, nil
	default:
		return Availability{}, err
	}
}

// Get returns one tenant.
func (s *Service) Get(ctx context.Context, id tenant.ID) (*tenant.Tenant, error) {
	return s.store.FindByIdentifier(ctx, id)
}

// List returns tenants matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]*tenant.Tenant, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, f)
}

// SetStatus moves a tenant to status. Deleted is terminal. The resolver
// cache entry is dropped so the change applies to the next request.
func (s *Service) SetStatus(ctx context.Context, id tenant.ID, status tenant.Status) (*tenant.Tenant, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	current, err := s.store.FindByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	updated, err := s.store.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, id)
	s.log.InfoContext(ctx, "tenant status changed",
		logger.TenantID(id.String()),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)),
	)
	return updated, nil
}

// Remove marks the tenant deleted, removes its database and then its record.
// A failure after the status change leaves a deleted record that can be
// removed again.
func (s *Service) Remove(ctx context.Context, id tenant.ID) error {
	if _, err := s.SetStatus(ctx, id, tenant.StatusDeleted); err != nil {
		return err
	}
	if err := s.dbs.DeleteDatabase(ctx, id); err != nil {
		return fmt.Errorf("delete database of %s: %w", id, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, id)
	s.log.InfoContext(ctx, "tenant removed", logger.TenantID(id.String()))
	return nil
}

// Stats returns row counts of a registered tenant's database.
func (s *Service) Stats(ctx context.Context, id tenant.ID) (tenantdb.Stats, error) {
	if _, err := s.store.FindByIdentifier(ctx, id); err != nil {
		return tenantdb.Stats{}, err
	}
	return s.dbs.Stats(ctx, id)
}

func (s *Service) validate(ctx context.Context, raw string) (tenant.ID, error) {
	id, err := tenant.ParseID(raw)
	if err != nil {
		return "", err
	}
	if s.reserved.Contains(id) {
		return id, tenant.ErrReservedIdentifier
	}
	_, err = s.store.FindByIdentifier(ctx, id)
	switch {
	case err == nil:
		return id, ErrAlreadyExists
	case errors.Is(err, tenant.ErrTenantNotFound):
		return id, nil
	default:
		return id, err
	}
}
