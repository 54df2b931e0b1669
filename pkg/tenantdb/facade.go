package tenantdb

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// Query returns every T matching all where clauses, ordered by key.
func Query[T Entity](ctx context.Context, where ...sq.Sqlizer) ([]T, error) {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var zero T
	pk, _ := zero.PrimaryKey()
	q := sq.Select(Columns(zero)...).From(zero.TableName()).OrderBy(pk)
	for _, w := range where {
		q = q.Where(w)
	}

	var out []T
	if err := s.Select(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the T whose key equals id, or ErrRecordNotFound.
func Get[T Entity](ctx context.Context, id any) (T, error) {
	var zero T
	s, err := SessionFromContext(ctx)
	if err != nil {
		return zero, err
	}
	pk, _ := zero.PrimaryKey()
	q := sq.Select(Columns(zero)...).From(zero.TableName()).Where(sq.Eq{pk: id}).Limit(1)

	var out T
	if err := s.Get(ctx, &out, q); err != nil {
		return zero, err
	}
	return out, nil
}

// Count returns the number of T rows matching all where clauses. Staged
// work is flushed first, so pending adds are counted.
func Count[T Entity](ctx context.Context, where ...sq.Sqlizer) (int64, error) {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var zero T
	q := sq.Select("COUNT(*)").From(zero.TableName())
	for _, w := range where {
		q = q.Where(w)
	}

	var n int64
	if err := s.Get(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}

// Add stages e in the request's session.
func Add(ctx context.Context, e Entity) error {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return err
	}
	s.Add(e)
	return nil
}

// Delete stages the removal of e in the request's session.
func Delete(ctx context.Context, e Entity) error {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return err
	}
	return s.Delete(e)
}

// Flush writes staged work without committing.
func Flush(ctx context.Context) error {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return err
	}
	return s.Flush(ctx)
}

// Commit commits the request's unit of work.
func Commit(ctx context.Context) error {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return err
	}
	return s.Commit(ctx)
}

// Rollback discards the request's unit of work.
func Rollback(ctx context.Context) error {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return err
	}
	return s.Rollback(ctx)
}

// Exec runs a statement inside the request's unit of work.
func Exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	s, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.Exec(ctx, q)
}
