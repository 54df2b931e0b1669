package inventory

import (
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/kbm/pkg/respond"
)

const (
	maxUserNameLength = 120
	pinLength         = 4
)

// Staff roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a member of a tenant's staff. The PIN is stored as a bcrypt hash.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	PINHash   string    `db:"pin_hash" json:"-"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u User) PrimaryKey() (string, any) { return "id", u.ID }

func (u User) Fields() map[string]any {
	return map[string]any{
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"pin_hash":   u.PINHash,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func (u *User) SetID(id int64) { u.ID = id }

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	PIN   string `json:"pin"`
}

func (r *CreateUserRequest) normalize() {
	r.Name = norm.NFC.String(strings.TrimSpace(r.Name))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = RoleUser
	}
	r.PIN = strings.TrimSpace(r.PIN)
}

func (r CreateUserRequest) validate() error {
	v := respond.NewValidationError()
	switch n := utf8.RuneCountInString(r.Name); {
	case n == 0:
		v.Add("name", "is required")
	case n > maxUserNameLength:
		v.Add("name", "is too long")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		v.Add("email", "is not a valid address")
	}
	if !slices.Contains([]string{RoleUser, RoleAdmin}, r.Role) {
		v.Add("role", "must be user or admin")
	}
	if !validPIN(r.PIN) {
		v.Add("pin", "must be exactly 4 digits")
	}
	return v.Err()
}

// VerifyPINRequest is the body of POST /users/{id}/verify-pin.
type VerifyPINRequest struct {
	PIN string `json:"pin"`
}

func validPIN(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
