package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/kbm/pkg/controlplane"
	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/respond"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

// DefaultAdminRole is the role required by the admin endpoints.
const DefaultAdminRole = "app_admin"

// Service is the part of controlplane.Service the handlers use.
type Service interface {
	Provision(ctx context.Context, req controlplane.SignupRequest) (*tenant.Tenant, error)
	Availability(ctx context.Context, raw string) (controlplane.Availability, error)
	Get(ctx context.Context, id tenant.ID) (*tenant.Tenant, error)
	List(ctx context.Context, f controlplane.Filter) ([]*tenant.Tenant, error)
	SetStatus(ctx context.Context, id tenant.ID, status tenant.Status) (*tenant.Tenant, error)
	Remove(ctx context.Context, id tenant.ID) error
	Stats(ctx context.Context, id tenant.ID) (tenantdb.Stats, error)
}

var _ Service = (*controlplane.Service)(nil)

type Handler struct {
	svc       Service
	identity  tenant.IdentityFunc
	adminRole string
	log       *slog.Logger
}

type Option func(*Handler)

func WithAdminRole(role string) Option {
	return func(h *Handler) {
		if role != "" {
			h.adminRole = role
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler panics on a nil service or identity func.
func NewHandler(svc Service, identity tenant.IdentityFunc, opts ...Option) *Handler {
	if svc == nil || identity == nil {
		panic("accounts: nil service or identity")
	}
	h := &Handler{svc: svc, identity: identity, adminRole: DefaultAdminRole, log: logger.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("accounts"))
	return h
}

// Routes mounts every endpoint behind tenant.RequireRootDomain, and the
// admin group additionally behind tenant.RequirePrivilegedRole.
func (h *Handler) Routes(r chi.Router) {
	eh := respond.ErrorHandler(h.log)
	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireRootDomain(eh))
		r.Post("/signup", h.signup)
		r.Get("/check-subdomain", h.checkSubdomain)

		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(tenant.RequirePrivilegedRole(h.identity, h.adminRole, eh))
			r.Get("/", h.list)
			r.Get("/{id}", h.get)
			r.Patch("/{id}", h.setStatus)
			r.Delete("/{id}", h.remove)
			r.Get("/{id}/stats", h.stats)
		})
	})
}

// accountView is the public signup response; storage details stay on the
// admin endpoints.
type accountView struct {
	Subdomain   tenant.ID     `json:"subdomain"`
	CompanyName string        `json:"company_name"`
	Status      tenant.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func newAccountView(t *tenant.Tenant) accountView {
	return accountView{Subdomain: t.ID, CompanyName: t.Name, Status: t.Status, CreatedAt: t.CreatedAt}
}

type signupRequest struct {
	Subdomain   string `json:"subdomain"`
	CompanyName string `json:"company_name"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := respond.Decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	opID := uuid.NewString()
	t, err := h.svc.Provision(r.Context(), controlplane.SignupRequest{
		Identifier: req.Subdomain,
		Name:       req.CompanyName,
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "signup completed",
		logger.TenantID(t.ID.String()), slog.String("operation_id", opID))
	respond.JSONWithMeta(w, http.StatusCreated, newAccountView(t), map[string]any{"operation_id": opID})
}

func (h *Handler) checkSubdomain(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("subdomain")
	if raw == "" {
		v := respond.NewValidationError()
		v.Add("subdomain", "is required")
		h.error(w, r, v)
		return
	}
	a, err := h.svc.Availability(r.Context(), raw)
	if err != nil {
		h.error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := controlplane.Filter{Status: tenant.Status(q.Get("status"))}
	v := respond.NewValidationError()
	for name, dst := range map[string]*uint64{"limit": &f.Limit, "offset": &f.Offset} {
		if s := q.Get(name); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				v.Add(name, "must be a non-negative integer")
				continue
			}
			*dst = n
		}
	}
	if err := v.Err(); err != nil {
		h.error(w, r, err)
		return
	}

	tenants, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.error(w, r, err)
		return
	}
	respond.JSONWithMeta(w, http.StatusOK, tenants, map[string]any{"total": len(tenants)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), tenant.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

type statusRequest struct {
	Status tenant.Status `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := respond.Decode(r, &req); err != nil {
		h.error(w, r, err)
		return
	}

	opID := uuid.NewString()
	id := tenant.ID(chi.URLParam(r, "id"))
	t, err := h.svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "tenant status set by admin",
		logger.TenantID(id.String()),
		slog.String("status", string(t.Status)),
		slog.String("operation_id", opID),
	)
	respond.JSONWithMeta(w, http.StatusOK, t, map[string]any{"operation_id": opID})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	opID := uuid.NewString()
	id := tenant.ID(chi.URLParam(r, "id"))
	if err := h.svc.Remove(r.Context(), id); err != nil {
		h.error(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "tenant removed by admin",
		logger.TenantID(id.String()), slog.String("operation_id", opID))
	w.Header().Set("X-Operation-ID", opID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), tenant.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// error translates control-plane errors before the common mapping. Signup
// input problems are client errors here even though the resolver treats
// the same identifiers as "not found".
func (h *Handler) error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, controlplane.ErrAlreadyExists),
		errors.Is(err, controlplane.ErrInvalidTransition):
		err = errors.Join(respond.ErrConflict, err)
	case errors.Is(err, tenant.ErrInvalidIdentifier),
		errors.Is(err, tenant.ErrReservedIdentifier):
		v := respond.NewValidationError()
		v.Add("subdomain", err.Error())
		err = v
	case errors.Is(err, controlplane.ErrInvalidName):
		v := respond.NewValidationError()
		v.Add("company_name", err.Error())
		err = v
	case errors.Is(err, controlplane.ErrInvalidStatus):
		v := respond.NewValidationError()
		v.Add("status", err.Error())
		err = v
	}
	respond.Error(w, r, h.log, err)
}
