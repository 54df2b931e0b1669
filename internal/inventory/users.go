package inventory

import (
	"errors"
	"net/http"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/kbm/pkg/respond"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

var (
	// ErrQuotaExceeded is returned when a create would pass the tenant's quota.
	ErrQuotaExceeded = respond.HTTPError{Code: http.StatusConflict, Key: "quota_exceeded"}
	// ErrWrongPIN is returned when a PIN does not match or the user is inactive.
	ErrWrongPIN = respond.HTTPError{Code: http.StatusUnauthorized, Key: "wrong_pin"}
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := tenantdb.Query[User](r.Context())
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	respond.JSONWithMeta(w, http.StatusOK, users, map[string]any{"total": len(users)})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	ctx := r.Context()
	if err := checkQuota[User](r, func(q tenant.Quotas) int { return q.MaxUsers }); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	taken, err := tenantdb.Count[User](ctx, sq.Or{sq.Eq{"name": req.Name}, sq.Eq{"email": req.Email}})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if taken > 0 {
		respond.Error(w, r, h.log, respond.ErrConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), h.pinCost)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	now := h.now().UTC()
	user := &User{
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		PINHash:   string(hash),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tenantdb.Add(ctx, user); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := tenantdb.Flush(ctx); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := h.commitWithLog(r, "user.created", "user", user.ID, "added "+user.Name); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

func (h *Handler) verifyPIN(w http.ResponseWriter, r *http.Request) {
	var req VerifyPINRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, r, h.log, respond.ErrBadRequest)
		return
	}
	user, err := tenantdb.Get[User](r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if !user.IsActive {
		respond.Error(w, r, h.log, ErrWrongPIN)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			err = ErrWrongPIN
		}
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// checkQuota fails with ErrQuotaExceeded when the resolved tenant already
// holds as many T rows as limit allows. A zero limit means unlimited.
func checkQuota[T tenantdb.Entity](r *http.Request, limit func(tenant.Quotas) int) error {
	ctx := r.Context()
	t, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNotFound
	}
	allowed := limit(t.Quotas)
	if allowed <= 0 {
		return nil
	}
	n, err := tenantdb.Count[T](ctx)
	if err != nil {
		return err
	}
	if n >= int64(allowed) {
		return ErrQuotaExceeded
	}
	return nil
}
