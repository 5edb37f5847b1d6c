// Package registry persists the central tenant registry: tenant records and
// their domain aliases. It is the only store that lives in the central
// database; everything else is tenant-scoped.
//
// Uniqueness of tenant IDs and domain aliases is enforced by primary keys in
// the storage layer, not by in-process locking, so concurrent registrations
// of the same ID or alias race safely: exactly one wins, the rest get a
// duplicate error.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/tenant"
)

// ErrDuplicate is returned when a tenant ID or domain alias is already
// registered, possibly by another tenant.
var ErrDuplicate = errors.New("tenant or domain already registered")

// Store provides registry reads and writes on the central database.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a registry store on the central database pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts a tenant record together with its initial domain aliases in
// one transaction. Returns ErrDuplicate when the ID or any alias is taken.
func (s *Store) Create(ctx context.Context, t *tenant.Tenant) error {
	if err := tenant.ValidateID(t.ID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx,
		`INSERT INTO tenants (id, name, email, status) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		t.ID, t.Name, t.Email, t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, t.ID)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}

	for _, domain := range t.Domains {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tenant_domains (domain, tenant_id) VALUES ($1, $2)`,
			domain, t.ID,
		); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: domain %s", ErrDuplicate, domain)
			}
			return fmt.Errorf("insert domain: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// AddDomain registers an additional alias for an existing tenant.
func (s *Store) AddDomain(ctx context.Context, tenantID, domain string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenant_domains (domain, tenant_id) VALUES ($1, $2)`,
		domain, tenantID,
	)
	switch {
	case pg.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: domain %s", ErrDuplicate, domain)
	case pg.IsForeignKeyViolationError(err):
		return tenant.NotFoundError(tenantID)
	case err != nil:
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

// GetByID loads a tenant and its aliases by tenant ID.
func (s *Store) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t := &tenant.Tenant{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, status, created_at FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.Status, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.NotFoundError(id)
		}
		return nil, fmt.Errorf("select tenant: %w", err)
	}

	if t.Domains, err = s.domains(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByDomain loads a tenant by one of its domain aliases.
func (s *Store) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	var tenantID string
	err := s.db.QueryRow(ctx,
		`SELECT tenant_id FROM tenant_domains WHERE domain = $1`,
		domain,
	).Scan(&tenantID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.NotFoundError(domain)
		}
		return nil, fmt.Errorf("select domain: %w", err)
	}
	return s.GetByID(ctx, tenantID)
}

// GetByIdentifier implements tenant.Provider: the identifier is tried as a
// tenant ID first, then as a domain alias, so either form resolves to the
// same tenant.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Tenant, error) {
	t, err := s.GetByID(ctx, identifier)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, tenant.ErrTenantNotFound) {
		return nil, err
	}
	return s.GetByDomain(ctx, identifier)
}

// List returns all tenants with their aliases, newest first.
func (s *Store) List(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.name, t.email, t.status, t.created_at,
		        COALESCE(array_agg(d.domain) FILTER (WHERE d.domain IS NOT NULL), '{}')
		   FROM tenants t
		   LEFT JOIN tenant_domains d ON d.tenant_id = t.id
		  GROUP BY t.id
		  ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		t := &tenant.Tenant{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Status, &t.CreatedAt, &t.Domains); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpdateStatus moves a tenant to a new lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status tenant.Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.NotFoundError(id)
	}
	return nil
}

// Delete removes the tenant record and, via cascade, its aliases. The caller
// owns the follow-up obligations: evicting the tenant's connection pool and
// dropping or archiving the physical database.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.NotFoundError(id)
	}
	return nil
}

func (s *Store) domains(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT domain FROM tenant_domains WHERE tenant_id = $1 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("select domains: %w", err)
	}
	defer rows.Close()

	domains, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect domains: %w", err)
	}
	return domains, nil
}
