package tenantdb

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// Stats summarizes a tenant database for the control plane.
type Stats struct {
	Users           int64 `json:"users"`
	Items           int64 `json:"items"`
	ActiveCheckouts int64 `json:"active_checkouts"`
	Contacts        int64 `json:"contacts"`
	Properties      int64 `json:"properties"`
}

// Stats counts rows in id's database. It reads through the handle and never
// touches a session.
func (m *Manager) Stats(ctx context.Context, id tenant.ID) (Stats, error) {
	h, err := m.Handle(ctx, id)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	counts := []struct {
		dest  *int64
		query sq.SelectBuilder
	}{
		{&st.Users, sq.Select("COUNT(*)").From("users")},
		{&st.Items, sq.Select("COUNT(*)").From("items")},
		{&st.ActiveCheckouts, sq.Select("COUNT(*)").From("item_checkouts").Where(sq.Eq{"returned_at": nil})},
		{&st.Contacts, sq.Select("COUNT(*)").From("contacts")},
		{&st.Properties, sq.Select("COUNT(*)").From("properties")},
	}
	for _, c := range counts {
		query, args, err := c.query.ToSql()
		if err != nil {
			return Stats{}, err
		}
		if err := sqlx.GetContext(ctx, h.db, c.dest, query, args...); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}
