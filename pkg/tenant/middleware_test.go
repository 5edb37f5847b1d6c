package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearspace-io/tenantry/pkg/tenant"
)

type fakeProvider struct {
	tenants map[string]*tenant.Tenant
	calls   atomic.Int64
}

func (p *fakeProvider) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Tenant, error) {
	p.calls.Add(1)
	if t, ok := p.tenants[identifier]; ok {
		return t, nil
	}
	return nil, tenant.NotFoundError(identifier)
}

func activeTenant(id string, domains ...string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:      id,
		Name:    id,
		Status:  tenant.StatusActive,
		Domains: domains,
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	headerResolver := tenant.NewHeaderResolver("X-Tenant")

	t.Run("resolved tenant lands in context", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{tenants: map[string]*tenant.Tenant{
			"acme": activeTenant("acme"),
		}}

		var seen *tenant.Tenant
		handler := tenant.Middleware(headerResolver, provider)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = tenant.MustFromContext(r.Context())
			}),
		)

		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("X-Tenant", "acme")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "acme", seen.ID)
	})

	t.Run("missing identifier is rejected with 400", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{}
		handler := tenant.Middleware(headerResolver, provider)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, provider.calls.Load(), "resolution must fail before the registry lookup")
	})

	t.Run("unknown tenant is rejected with 404", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{}
		handler := tenant.Middleware(headerResolver, provider)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		)

		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("X-Tenant", "does-not-exist")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "does-not-exist")
	})

	t.Run("inactive tenant is rejected with 403", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{tenants: map[string]*tenant.Tenant{
			"acme": {ID: "acme", Status: tenant.StatusProvisioning},
		}}
		handler := tenant.Middleware(headerResolver, provider)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		)

		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("X-Tenant", "acme")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("inactive tenant passes when active not required", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{tenants: map[string]*tenant.Tenant{
			"acme": {ID: "acme", Status: tenant.StatusProvisioning},
		}}
		handler := tenant.Middleware(headerResolver, provider, tenant.WithRequireActive(false))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		)

		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("X-Tenant", "acme")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cache hit skips the registry lookup", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{tenants: map[string]*tenant.Tenant{
			"acme": activeTenant("acme"),
		}}
		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		handler := tenant.Middleware(headerResolver, provider, tenant.WithCache(cache, time.Minute))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		)

		for range 3 {
			req := httptest.NewRequest("GET", "/api/notes", nil)
			req.Header.Set("X-Tenant", "acme")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		assert.Equal(t, int64(1), provider.calls.Load())
	})

	t.Run("custom error handler receives resolution errors", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{}
		var got error
		handler := tenant.Middleware(headerResolver, provider,
			tenant.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, got, tenant.ErrIdentifierMissing)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	t.Run("passes with tenant in context", func(t *testing.T) {
		t.Parallel()

		handler := tenant.RequireTenant(nil)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		)

		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(tenant.WithTenant(req.Context(), activeTenant("acme")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects without tenant in context", func(t *testing.T) {
		t.Parallel()

		handler := tenant.RequireTenant(nil)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
