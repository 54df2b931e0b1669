package tenantdb

import (
	"reflect"
	"sort"
)

// Entity is a row of a tenant table. Implement the methods on the value
// type so both T and *T satisfy it; the facade's generic readers instantiate
// the zero value of T to learn the table.
type Entity interface {
	// TableName returns the table the entity is stored in.
	TableName() string
	// PrimaryKey returns the key column and the entity's key value. A zero
	// value means the row has not been stored yet.
	PrimaryKey() (column string, value any)
	// Fields returns every non-key column with its value.
	Fields() map[string]any
}

// IDSetter is implemented by entities with database-assigned keys. Flush
// calls it with the id of a newly inserted row.
type IDSetter interface {
	SetID(id int64)
}

// Columns lists the key column followed by the field columns in a stable
// order.
func Columns(e Entity) []string {
	pk, _ := e.PrimaryKey()
	fields := e.Fields()
	cols := make([]string, 0, len(fields)+1)
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return append([]string{pk}, cols...)
}

func hasKey(e Entity) bool {
	_, v := e.PrimaryKey()
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return !rv.IsZero()
}
