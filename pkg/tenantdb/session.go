package tenantdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/sqlite"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

type opKind int

const (
	opAdd opKind = iota
	opDelete
)

type pendingOp struct {
	kind   opKind
	entity Entity
}

// Session is a unit of work over one tenant handle. Add and Delete stage
// changes; Flush writes them inside a transaction that stays open until
// Commit or Rollback. Reads flush first so they observe staged changes.
//
// A Session guards its own state and is safe for concurrent use, but
// callers sharing one session also share its transaction.
type Session struct {
	handle *Handle
	log    *slog.Logger

	mu      sync.Mutex
	tx      *sqlx.Tx
	pending []pendingOp
}

func newSession(h *Handle, log *slog.Logger) *Session {
	return &Session{handle: h, log: log}
}

// TenantID returns the tenant the session is bound to.
func (s *Session) TenantID() tenant.ID { return s.handle.id }

// Add stages an insert, or an upsert when the entity already has a key.
func (s *Session) Add(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingOp{kind: opAdd, entity: e})
}

// Delete stages the removal of a stored entity.
func (s *Session) Delete(e Entity) error {
	if !hasKey(e) {
		return ErrMissingPrimaryKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingOp{kind: opDelete, entity: e})
	return nil
}

// Pending returns the number of staged operations.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes staged operations without committing. On failure the
// transaction is rolled back and staged work is discarded.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx)
}

// Commit flushes and commits. A session with nothing to write commits
// trivially.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return err
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tenant %s: %w", s.handle.id, err)
	}
	return nil
}

// Rollback discards staged and flushed work.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollback()
}

// Close rolls back anything uncommitted. The session remains usable.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollback()
}

// Select flushes and scans the rows of q into dest, a pointer to a slice.
func (s *Session) Select(ctx context.Context, dest any, q sq.Sqlizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, s.queryer(), dest, query, args...)
}

// Get flushes and scans the single row of q into dest.
func (s *Session) Get(ctx context.Context, dest any, q sq.Sqlizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, s.queryer(), dest, query, args...); err != nil {
		if sqlite.IsNotFoundError(err) {
			return errors.Join(ErrRecordNotFound, err)
		}
		return err
	}
	return nil
}

// Exec flushes and runs q inside the session transaction, for bulk updates
// that do not map to a single entity.
func (s *Session) Exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(err, s.rollback())
	}
	return res, nil
}

// Must be called with lock held.
func (s *Session) queryer() sqlx.QueryerContext {
	if s.tx != nil {
		return s.tx
	}
	return s.handle.db
}

// Must be called with lock held.
func (s *Session) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.handle.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tenant %s: %w", s.handle.id, err)
	}
	s.tx = tx
	return nil
}

// Must be called with lock held.
func (s *Session) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.begin(ctx); err != nil {
		return err
	}

	ops := s.pending
	s.pending = nil
	for _, op := range ops {
		var err error
		switch op.kind {
		case opAdd:
			err = s.write(ctx, op.entity)
		case opDelete:
			err = s.remove(ctx, op.entity)
		}
		if err != nil {
			s.log.DebugContext(ctx, "flush failed, rolling back",
				logger.TenantID(s.handle.id.String()),
				slog.String("table", op.entity.TableName()),
				logger.Error(err),
			)
			return errors.Join(err, s.rollback())
		}
	}
	return nil
}

// Must be called with lock held.
func (s *Session) rollback() error {
	s.pending = nil
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tenant %s: %w", s.handle.id, err)
	}
	return nil
}

func (s *Session) write(ctx context.Context, e Entity) error {
	pk, key := e.PrimaryKey()
	fields := e.Fields()
	stored := hasKey(e)

	values := make(map[string]any, len(fields)+1)
	for c, v := range fields {
		values[c] = v
	}
	q := sq.Insert(e.TableName())
	if stored {
		values[pk] = key
		q = q.SetMap(values).Suffix(upsertClause(pk, fields))
	} else {
		q = q.SetMap(values)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	res, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if setter, ok := e.(IDSetter); ok && !stored {
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		setter.SetID(id)
	}
	return nil
}

func (s *Session) remove(ctx context.Context, e Entity) error {
	pk, key := e.PrimaryKey()
	query, args, err := sq.Delete(e.TableName()).Where(sq.Eq{pk: key}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.tx.ExecContext(ctx, query, args...)
	return err
}

func upsertClause(pk string, fields map[string]any) string {
	if len(fields) == 0 {
		return fmt.Sprintf("ON CONFLICT(%s) DO NOTHING", pk)
	}
	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s", pk, strings.Join(sets, ", "))
}
