package controlplane

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// MemoryStore keeps tenants in a map. Records are copied in and out so
// callers cannot mutate stored state.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[tenant.ID]tenant.Tenant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[tenant.ID]tenant.Tenant)}
}

func (s *MemoryStore) FindByIdentifier(_ context.Context, id tenant.ID) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &t, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	out := make([]*tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, &t)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *tenant.Tenant) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	if f.Offset > 0 {
		out = out[min(int(f.Offset), len(out)):]
	}
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; ok {
		return ErrAlreadyExists
	}
	s.tenants[t.ID] = *t
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id tenant.ID, status tenant.Status, at time.Time) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	t.Status = status
	t.UpdatedAt = at.UTC()
	s.tenants[id] = t
	return &t, nil
}

func (s *MemoryStore) Delete(_ context.Context, id tenant.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return tenant.ErrTenantNotFound
	}
	delete(s.tenants, id)
	return nil
}
