// Package tenant provides tenant resolution for multi-tenant HTTP services.
//
// A tenant is identified per request by a resolver (URL path parameter,
// header, or subdomain), loaded from a registry Provider, and stored in the
// request context for the rest of the request's lifetime. Resolution is
// strict: a request without a usable identifier, or with an identifier that
// matches neither a tenant ID nor a domain alias, is rejected before any
// downstream handler runs.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Route("/{tenant}", func(r chi.Router) {
//		r.Use(tenant.Middleware(
//			tenant.NewPathResolver("tenant"),
//			registryStore,
//			tenant.WithCache(tenant.NewInMemoryCache(), 5*time.Minute),
//		))
//		r.Mount("/api", api)
//	})
//
// Handlers read the resolved tenant with FromContext or MustFromContext.
//
// Resolved tenants can optionally be cached in-memory or in Redis. Cache
// invalidation is scoped per identifier (tenant ID plus each domain alias,
// see InvalidateTenant); the interface intentionally offers no blanket flush.
package tenant
