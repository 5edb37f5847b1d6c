package tenantdb

import "errors"

var (
	// ErrDatabaseUnavailable is returned when a tenant's physical database
	// does not exist or cannot be reached. There is no fallback to a central
	// database; that would silently break tenant isolation.
	ErrDatabaseUnavailable = errors.New("tenant database unavailable")

	// ErrNoConnInContext is returned when a tenant-scoped query runs outside
	// a bound context.
	ErrNoConnInContext = errors.New("no tenant database connection in context")

	// ErrClosed is returned when the pool set has been shut down.
	ErrClosed = errors.New("tenant pools closed")

	// ErrInvalidConfig is returned when the connection string cannot be parsed.
	ErrInvalidConfig = errors.New("invalid tenant database config")
)
