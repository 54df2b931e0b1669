package inventory

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/kbm/pkg/respond"
)

const maxLabelLength = 255

// Item statuses.
const (
	StatusAvailable  = "available"
	StatusCheckedOut = "checked_out"
	StatusLost       = "lost"
	StatusRetired    = "retired"
)

var itemTypes = []string{"key", "lockbox", "keycard", "remote", "other"}

// Item is a row of the items table.
type Item struct {
	ID        int64     `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Label     string    `db:"label" json:"label"`
	Location  *string   `db:"location" json:"location,omitempty"`
	Status    string    `db:"status" json:"status"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

func (i Item) PrimaryKey() (string, any) { return "id", i.ID }

func (i Item) Fields() map[string]any {
	return map[string]any{
		"type":       i.Type,
		"label":      i.Label,
		"location":   i.Location,
		"status":     i.Status,
		"address":    i.Address,
		"created_at": i.CreatedAt,
		"updated_at": i.UpdatedAt,
	}
}

func (i *Item) SetID(id int64) { i.ID = id }

// ActivityLog records who did what to which row.
type ActivityLog struct {
	ID         int64     `db:"id"`
	CreatedAt  time.Time `db:"created_at"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   int64     `db:"target_id"`
	Summary    string    `db:"summary"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

func (a ActivityLog) PrimaryKey() (string, any) { return "id", a.ID }

func (a ActivityLog) Fields() map[string]any {
	return map[string]any{
		"created_at":  a.CreatedAt,
		"action":      a.Action,
		"target_type": a.TargetType,
		"target_id":   a.TargetID,
		"summary":     a.Summary,
	}
}

func (a *ActivityLog) SetID(id int64) { a.ID = id }

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	Location *string `json:"location"`
	Address  *string `json:"address"`
}

func (r *CreateItemRequest) normalize() {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Label = strings.TrimSpace(r.Label)
}

func (r CreateItemRequest) validate() error {
	v := respond.NewValidationError()
	if !slices.Contains(itemTypes, r.Type) {
		v.Add("type", "must be one of "+strings.Join(itemTypes, ", "))
	}
	switch n := utf8.RuneCountInString(r.Label); {
	case n == 0:
		v.Add("label", "is required")
	case n > maxLabelLength:
		v.Add("label", "is too long")
	}
	return v.Err()
}

// UpdateStatusRequest is the body of PATCH /items/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func validStatus(s string) bool {
	return slices.Contains([]string{StatusAvailable, StatusCheckedOut, StatusLost, StatusRetired}, s)
}
