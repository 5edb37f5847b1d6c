package tenantdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithConn binds a tenant database pool into the context. The binding is
// valid only for the scope of this context; it must never outlive the
// request or callback it was created for.
func WithConn(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, contextKey{}, pool)
}

// Conn retrieves the bound tenant database pool from the context.
func Conn(ctx context.Context) (*pgxpool.Pool, bool) {
	pool, ok := ctx.Value(contextKey{}).(*pgxpool.Pool)
	return pool, ok
}

// MustConn retrieves the bound pool and panics if the context is not bound.
// Use only in code mounted strictly behind Middleware or inside WithConn.
func MustConn(ctx context.Context) *pgxpool.Pool {
	pool, ok := Conn(ctx)
	if !ok || pool == nil {
		panic("tenantdb: no tenant database connection in context")
	}
	return pool
}
