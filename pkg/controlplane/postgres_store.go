package controlplane

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/kbm/pkg/pg"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// PostgresStore keeps the registry in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresStore wraps a connected, migrated pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, id tenant.ID) (*tenant.Tenant, error) {
	query, args, err := s.sb.Select(columns...).From(accountsTable).Where(sq.Eq{"subdomain": id.String()}).ToSql()
	if err != nil {
		return nil, err
	}
	return s.one(ctx, query, args...)
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*tenant.Tenant, error) {
	q := s.sb.Select(columns...).From(accountsTable).OrderBy("subdomain")
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[accountRow])
	if err != nil {
		return nil, err
	}
	out := make([]*tenant.Tenant, len(records))
	for i, r := range records {
		out[i] = r.tenant()
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, t *tenant.Tenant) error {
	query, args, err := s.sb.Insert(accountsTable).SetMap(rowValues(t)).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(ErrAlreadyExists, err)
		}
		return err
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id tenant.ID, status tenant.Status, at time.Time) (*tenant.Tenant, error) {
	query, args, err := s.sb.Update(accountsTable).
		Set("status", string(status)).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"subdomain": id.String()}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.one(ctx, query, args...)
}

func (s *PostgresStore) Delete(ctx context.Context, id tenant.ID) error {
	query, args, err := s.sb.Delete(accountsTable).Where(sq.Eq{"subdomain": id.String()}).ToSql()
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) one(ctx context.Context, query string, args ...any) (*tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[accountRow])
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return row.tenant(), nil
}
