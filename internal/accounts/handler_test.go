package accounts_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/internal/accounts"
	"github.com/dmitrymomot/kbm/pkg/controlplane"
	"github.com/dmitrymomot/kbm/pkg/identity"
	"github.com/dmitrymomot/kbm/pkg/respond"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

const (
	root  = "example.com"
	admin = "app_admin"
)

type fixture struct {
	router http.Handler
	ids    *identity.Service
	dbs    *tenantdb.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbs := tenantdb.New(tenantdb.Config{DataDir: t.TempDir()})
	t.Cleanup(func() { _ = dbs.Close() })
	store := controlplane.NewMemoryStore()
	cache := tenant.NewMemoryCache(100)
	svc := controlplane.NewService(store, dbs, controlplane.WithCache(cache))

	ids, err := identity.New(identity.Config{Secret: "test-secret"})
	require.NoError(t, err)

	eh := respond.ErrorHandler(nil)
	r := chi.NewRouter()
	r.Use(identity.Middleware(ids))
	r.Use(tenant.Middleware(root, store, dbs, tenant.WithCache(cache), tenant.WithErrorHandler(eh)))
	accounts.NewHandler(svc, identity.FromRequest).Routes(r)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, _ := tenant.IDFromContext(r.Context())
		respond.JSON(w, http.StatusOK, id)
	})

	return &fixture{router: r, ids: ids, dbs: dbs}
}

func (f *fixture) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := f.ids.Issue("operator", role)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, host, path, token, body string) (*httptest.ResponseRecorder, respond.Envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, "http://"+host+path, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	var env respond.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (f *fixture) signup(t *testing.T, subdomain string) {
	t.Helper()
	w, _ := f.do(t, http.MethodPost, root, "/signup", "", `{"subdomain":"`+subdomain+`","company_name":"`+subdomain+` Inc"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSignup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, root, "/signup", "", `{"subdomain":"Acme","company_name":"Acme Realty"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, "acme", data["subdomain"])
	assert.Equal(t, "active", data["status"])
	assert.NotContains(t, data, "database_path")
	_, err := uuid.Parse(env.Meta["operation_id"].(string))
	assert.NoError(t, err)

	exists, err := f.dbs.Exists("acme")
	require.NoError(t, err)
	assert.True(t, exists)

	// The new tenant resolves immediately.
	w, env = f.do(t, http.MethodGet, "acme."+root, "/whoami", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", env.Data)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"taken", `{"subdomain":"acme","company_name":"Other"}`, http.StatusConflict, ""},
		{"reserved", `{"subdomain":"admin","company_name":"Admin"}`, http.StatusUnprocessableEntity, "subdomain"},
		{"invalid", `{"subdomain":"a","company_name":"A"}`, http.StatusUnprocessableEntity, "subdomain"},
		{"no name", `{"subdomain":"globex","company_name":""}`, http.StatusUnprocessableEntity, "company_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := f.do(t, http.MethodPost, root, "/signup", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			if tt.field != "" {
				assert.Contains(t, env.Error.Details, tt.field)
			}
		})
	}
}

func TestSignup_OnlyOnRootDomain(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signup(t, "acme")

	w, _ := f.do(t, http.MethodPost, "acme."+root, "/signup", "", `{"subdomain":"globex","company_name":"Globex"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodGet, "acme."+root, "/check-subdomain?subdomain=globex", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckSubdomain(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signup(t, "acme")

	tests := map[string]controlplane.Availability{
		"globex": {ID: "globex", Available: true},
		"acme":   {ID: "acme", Reason: "taken"},
		"api":    {ID: "api", Reason: "reserved"},
	}
	for q, want := range tests {
		w, _ := f.do(t, http.MethodGet, root, "/check-subdomain?subdomain="+q, "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data controlplane.Availability `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body.Data, q)
	}

	w, _ := f.do(t, http.MethodGet, root, "/check-subdomain", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdmin_Guards(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signup(t, "acme")

	tests := []struct {
		name   string
		host   string
		token  string
		status int
	}{
		{"anonymous", root, "", http.StatusUnauthorized},
		{"member", root, f.token(t, "member"), http.StatusForbidden},
		{"admin", root, f.token(t, admin), http.StatusOK},
		{"admin on tenant host", "acme." + root, f.token(t, admin), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := f.do(t, http.MethodGet, tt.host, "/admin/tenants", tt.token, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAdmin_Lifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signup(t, "acme")
	f.signup(t, "globex")
	tok := f.token(t, admin)

	w, env := f.do(t, http.MethodGet, root, "/admin/tenants?limit=1", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.Data, 1)

	w, _ = f.do(t, http.MethodGet, root, "/admin/tenants?limit=-1", tok, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env = f.do(t, http.MethodGet, root, "/admin/tenants/acme", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, env.Data.(map[string]any)["database_path"])

	w, env = f.do(t, http.MethodGet, root, "/admin/tenants/acme/stats", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, env.Data.(map[string]any)["items"])

	// Warm the resolver cache, then suspend: the next request sees it.
	w, _ = f.do(t, http.MethodGet, "acme."+root, "/whoami", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodPatch, root, "/admin/tenants/acme", tok, `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "suspended", env.Data.(map[string]any)["status"])
	assert.NotEmpty(t, env.Meta["operation_id"])

	w, _ = f.do(t, http.MethodGet, "acme."+root, "/whoami", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = f.do(t, http.MethodGet, root, "/admin/tenants?status=suspended", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.Data, 1)

	w, _ = f.do(t, http.MethodPatch, root, "/admin/tenants/acme", tok, `{"status":"frozen"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = f.do(t, http.MethodDelete, root, "/admin/tenants/acme", tok, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := uuid.Parse(w.Header().Get("X-Operation-ID"))
	assert.NoError(t, err)

	w, _ = f.do(t, http.MethodGet, "acme."+root, "/whoami", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.do(t, http.MethodGet, root, "/admin/tenants/acme", tok, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	exists, err := f.dbs.Exists("acme")
	require.NoError(t, err)
	assert.False(t, exists)

	w, _ = f.do(t, http.MethodDelete, root, "/admin/tenants/acme", tok, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_InvalidTransition(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signup(t, "acme")
	tok := f.token(t, admin)

	w, _ := f.do(t, http.MethodPatch, root, "/admin/tenants/acme", tok, `{"status":"deleted"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodPatch, root, "/admin/tenants/acme", tok, `{"status":"active"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNewHandler_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { accounts.NewHandler(nil, identity.FromRequest) })
	assert.Panics(t, func() {
		accounts.NewHandler(controlplane.NewService(controlplane.NewMemoryStore(), nil), nil)
	})
}
