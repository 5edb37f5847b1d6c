package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when neither the ID nor the alias lookup
	// matches. Callers wrap it with the offending identifier for diagnostics.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrIdentifierMissing is returned when the request carries no usable
	// tenant identifier at all.
	ErrIdentifierMissing = errors.New("tenant identifier missing")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use a tenant that is not
	// in the active state.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
