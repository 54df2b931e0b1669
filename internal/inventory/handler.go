package inventory

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/respond"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

// Handler serves the item and staff endpoints of a resolved tenant.
type Handler struct {
	log     *slog.Logger
	now     func() time.Time
	pinCost int
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithPINCost sets the bcrypt cost used to hash staff PINs.
func WithPINCost(cost int) Option {
	return func(h *Handler) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.pinCost = cost
		}
	}
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{log: logger.Discard(), now: time.Now, pinCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("inventory"))
	return h
}

// Routes mounts the handlers. The caller guards them with the tenant
// resolver and tenant.RequireTenant.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/items", h.list)
	r.Post("/items", h.create)
	r.Get("/items/{id}", h.get)
	r.Patch("/items/{id}", h.updateStatus)
	r.Delete("/items/{id}", h.delete)

	r.Get("/users", h.listUsers)
	r.Post("/users", h.createUser)
	r.Post("/users/{id}/verify-pin", h.verifyPIN)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var where []sq.Sqlizer
	if status := r.URL.Query().Get("status"); status != "" {
		if !validStatus(status) {
			v := respond.NewValidationError()
			v.Add("status", "is unknown")
			respond.Error(w, r, h.log, v)
			return
		}
		where = append(where, sq.Eq{"status": status})
	}

	items, err := tenantdb.Query[Item](r.Context(), where...)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	respond.JSONWithMeta(w, http.StatusOK, items, map[string]any{"total": len(items)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.load(r)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	if err := checkQuota[Item](r, func(q tenant.Quotas) int { return q.MaxItems }); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	ctx := r.Context()
	now := h.now().UTC()
	item := &Item{
		Type:      req.Type,
		Label:     req.Label,
		Location:  req.Location,
		Address:   req.Address,
		Status:    StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tenantdb.Add(ctx, item); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	// The log row needs the item id.
	if err := tenantdb.Flush(ctx); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := h.commitWithLog(r, "item.created", "item", item.ID, fmt.Sprintf("created %s %q", item.Type, item.Label)); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if !validStatus(req.Status) {
		v := respond.NewValidationError()
		v.Add("status", "is unknown")
		respond.Error(w, r, h.log, v)
		return
	}

	item, err := h.load(r)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	from := item.Status
	item.Status = req.Status
	item.UpdatedAt = h.now().UTC()
	if err := tenantdb.Add(r.Context(), &item); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := h.commitWithLog(r, "item.status_changed", "item", item.ID, from+" -> "+item.Status); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	item, err := h.load(r)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := tenantdb.Delete(r.Context(), item); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if err := h.commitWithLog(r, "item.deleted", "item", item.ID, fmt.Sprintf("deleted %q", item.Label)); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) load(r *http.Request) (Item, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return Item{}, respond.ErrBadRequest
	}
	return tenantdb.Get[Item](r.Context(), id)
}

// commitWithLog stages an activity row and commits it together with the
// request's other staged work. On failure the whole unit is rolled back.
func (h *Handler) commitWithLog(r *http.Request, action, targetType string, targetID int64, summary string) error {
	ctx := r.Context()
	entry := &ActivityLog{
		CreatedAt:  h.now().UTC(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Summary:    summary,
	}
	if err := tenantdb.Add(ctx, entry); err != nil {
		return err
	}
	if err := tenantdb.Commit(ctx); err != nil {
		_ = tenantdb.Rollback(ctx)
		return err
	}
	return nil
}
