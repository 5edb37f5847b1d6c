// Package tenantdb binds requests to their tenant's physical database.
//
// Every tenant owns one database whose name is derived deterministically from
// a configured prefix and the tenant ID (see DBName). Instead of repointing a
// single shared connection slot per request — which aliases state across
// concurrent requests — the package keeps one connection pool per tenant,
// keyed by tenant ID. A request looks its pool up, carries the handle in its
// own context, and never observes another tenant's binding.
//
// The bound handle is valid only for the scope it was issued in (a request or
// an explicit WithConn callback). Callers must not cache it across units of
// work.
//
// Pools.Get never falls back to a central or default database: if the
// tenant's database cannot be reached the caller gets ErrDatabaseUnavailable
// and the request is aborted.
package tenantdb
