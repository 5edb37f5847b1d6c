// Package pg provides PostgreSQL connection helpers built on pgx.
//
// Connect establishes a pgxpool with retry and backoff so services survive
// transient network failures at startup. Migrate applies an embedded goose
// migration set to any pool — the same mechanism serves the central registry
// database at startup and each new tenant database during provisioning.
// The error classifiers (IsNotFoundError, IsDuplicateKeyError, ...) give the
// rest of the codebase a consistent way to branch on SQLSTATE without
// sprinkling pgconn imports everywhere.
package pg
