package provision

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearspace-io/tenantry/pkg/pg"
)

// AdminDB manages physical tenant databases through a connection with
// CREATEDB privileges on the central server.
type AdminDB struct {
	db *pgxpool.Pool
}

// NewAdminDB wraps the administrative connection pool.
func NewAdminDB(db *pgxpool.Pool) *AdminDB {
	return &AdminDB{db: db}
}

// Create issues CREATE DATABASE for the given name. A database that already
// exists is treated as success so retries of a failed provisioning run are
// idempotent.
func (a *AdminDB) Create(ctx context.Context, name string) error {
	// CREATE DATABASE cannot be parameterized; the name is quoted as an
	// identifier. Tenant IDs are validated to a safe charset upstream.
	_, err := a.db.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s`, pgx.Identifier{name}.Sanitize()))
	if err != nil && !pg.IsDuplicateDatabaseError(err) {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// Drop removes the database if it exists. Sessions still attached are
// terminated by the server due to FORCE.
func (a *AdminDB) Drop(ctx context.Context, name string) error {
	_, err := a.db.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s WITH (FORCE)`, pgx.Identifier{name}.Sanitize()))
	if err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}
