// Package migrations embeds the goose migration sets. The registry set runs
// once against the central database at startup; the tenant set runs against
// each tenant database during provisioning.
package migrations

import "embed"

//go:embed registry/*.sql tenant/*.sql
var FS embed.FS

const (
	// RegistryDir is the migration set for the central registry database.
	RegistryDir = "registry"
	// TenantDir is the migration set applied to every tenant database.
	TenantDir = "tenant"
)
