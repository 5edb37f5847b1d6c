package tenantdb

import (
	"errors"
	"net/http"

	"github.com/clearspace-io/tenantry/pkg/tenant"
)

// ErrorHandler handles errors that occur while binding the tenant database.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware binds the resolved tenant's database pool into the request
// context. It must run after tenant.Middleware and before any handler or
// middleware that touches tenant data — the authenticator in particular
// depends on the binding being in place.
func Middleware(binder Binder, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := tenant.FromContext(r.Context())
			if !ok || t == nil {
				errorHandler(w, r, tenant.ErrNoTenantInContext)
				return
			}

			pool, err := binder.Get(r.Context(), t.ID)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithConn(r.Context(), pool)))
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrDatabaseUnavailable):
		http.Error(w, "Tenant database unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, tenant.ErrNoTenantInContext):
		http.Error(w, "Tenant identifier required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
