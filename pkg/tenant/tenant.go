package tenant

import (
	"context"
	"regexp"
	"time"
)

// Status describes where a tenant is in its provisioning lifecycle.
// Only active tenants are allowed to serve traffic.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusActive       Status = "active"
	StatusFailed       Status = "provisioning_failed"
)

// Tenant is the registry view of a customer organization. Each tenant owns
// exactly one physical database whose name is derived from the tenant ID.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    Status    `json:"status"`
	Domains   []string  `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the tenant may serve requests.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// Provider loads tenant records from the registry. Implementations look the
// identifier up as a tenant ID first and fall back to a domain alias lookup,
// so resolving either form yields the same tenant.
type Provider interface {
	// GetByIdentifier retrieves a tenant by ID or domain alias.
	// Returns an error wrapping ErrTenantNotFound when neither matches.
	GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error)
}

// idPattern keeps tenant IDs URL-safe: they appear verbatim in request paths
// and in physical database names.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ValidateID checks that id is usable as a path segment and database name
// suffix. Returns ErrInvalidIdentifier otherwise.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return ErrInvalidIdentifier
	}
	return nil
}
