package provision

import "errors"

var (
	// ErrDuplicateTenant is returned when the tenant ID or initial domain
	// alias is already registered.
	ErrDuplicateTenant = errors.New("tenant already exists")

	// ErrMigrationFailed is returned when the tenant schema migrations could
	// not be applied. The registry row and physical database exist at this
	// point but the tenant is unusable; it is marked provisioning_failed and
	// can be repaired with Resume.
	ErrMigrationFailed = errors.New("tenant schema migration failed")
)
