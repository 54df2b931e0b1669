package controlplane

import (
	"context"
	"errors"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/kbm/pkg/sqlite"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

const accountsTable = "accounts"

// SQLiteStore keeps the registry in one SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) FindByIdentifier(ctx context.Context, id tenant.ID) (*tenant.Tenant, error) {
	query, args, err := sq.Select(columns...).From(accountsTable).Where(sq.Eq{"subdomain": id.String()}).ToSql()
	if err != nil {
		return nil, err
	}
	var row accountRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if sqlite.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return row.tenant(), nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*tenant.Tenant, error) {
	q := sq.Select(columns...).From(accountsTable).OrderBy("subdomain")
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		if f.Limit == 0 {
			q = q.Limit(math.MaxInt64)
		}
		q = q.Offset(f.Offset)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*tenant.Tenant, len(rows))
	for i, r := range rows {
		out[i] = r.tenant()
	}
	return out, nil
}

func (s *SQLiteStore) Create(ctx context.Context, t *tenant.Tenant) error {
	query, args, err := sq.Insert(accountsTable).SetMap(rowValues(t)).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if sqlite.IsUniqueViolation(err) {
			return errors.Join(ErrAlreadyExists, err)
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id tenant.ID, status tenant.Status, at time.Time) (*tenant.Tenant, error) {
	query, args, err := sq.Update(accountsTable).
		Set("status", string(status)).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"subdomain": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, tenant.ErrTenantNotFound
	}
	return s.FindByIdentifier(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id tenant.ID) error {
	query, args, err := sq.Delete(accountsTable).Where(sq.Eq{"subdomain": id.String()}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
