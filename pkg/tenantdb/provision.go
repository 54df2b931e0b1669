package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// sideFiles are the SQLite files that accompany a database in WAL mode.
var sideFiles = []string{"-wal", "-shm", "-journal"}

// CreateDatabase creates id's database file, applies the schema and caches
// the handle. It fails with ErrDatabaseExists if the file is already there.
// On failure nothing is left on disk.
func (m *Manager) CreateDatabase(ctx context.Context, id tenant.ID) (path string, err error) {
	start := time.Now()
	defer func() {
		m.metrics.Provisioning.WithLabelValues("create", resultLabel(err)).Inc()
		m.metrics.ProvisionTimes.WithLabelValues("create").Observe(time.Since(start).Seconds())
	}()

	if _, err := m.cachedHandle(id); err != nil {
		return "", err
	}

	unlock := m.lockTenant(id)
	defer unlock()

	path = m.Path(id)
	if err := os.MkdirAll(m.cfg.DataDir, 0o750); err != nil {
		return "", fmt.Errorf("create tenant data dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDatabaseExists, id)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	h, err := m.open(ctx, id, path)
	if err != nil {
		removeFiles(path)
		return "", err
	}
	if err := m.schema(ctx, h.db); err != nil {
		_ = h.db.Close()
		removeFiles(path)
		return "", errors.Join(ErrFailedToApplySchema, err)
	}
	if err := m.store(h); err != nil {
		removeFiles(path)
		return "", err
	}

	m.log.InfoContext(ctx, "tenant database created",
		logger.TenantID(id.String()),
		logger.Duration(time.Since(start)),
	)
	return path, nil
}

// DeleteDatabase closes and evicts id's session and handle, then removes the
// database file and its side files. A missing file is not an error. The
// operation cannot be undone.
func (m *Manager) DeleteDatabase(ctx context.Context, id tenant.ID) (err error) {
	start := time.Now()
	defer func() {
		m.metrics.Provisioning.WithLabelValues("delete", resultLabel(err)).Inc()
		m.metrics.ProvisionTimes.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	}()

	unlock := m.lockTenant(id)
	defer unlock()

	var errs []error
	s, h := m.evict(id)
	if s != nil {
		errs = append(errs, s.Close())
	}
	if h != nil {
		errs = append(errs, h.db.Close())
	}

	path := m.Path(id)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove tenant database: %w", err))
	}
	removeFiles(path)

	if err := errors.Join(errs...); err != nil {
		m.log.ErrorContext(ctx, "tenant database removal incomplete", logger.TenantID(id.String()), logger.Error(err))
		return err
	}
	m.log.InfoContext(ctx, "tenant database deleted", logger.TenantID(id.String()))
	return nil
}

// Exists reports whether id has a database file.
func (m *Manager) Exists(id tenant.ID) (bool, error) {
	_, err := os.Stat(m.Path(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func removeFiles(path string) {
	_ = os.Remove(path)
	for _, suffix := range sideFiles {
		_ = os.Remove(path + suffix)
	}
}
