// Package provision orchestrates tenant creation: registry entry, physical
// database creation, schema migration, and seeding of the initial admin
// user — all against the new tenant's own bound database.
//
// There is no compensating rollback: a failure after the registry row exists
// leaves the tenant in status provisioning_failed, and Resume re-runs the
// remaining steps. Every step except seeding is naturally idempotent;
// seeding is guarded by a lookup-or-create on the admin email so a retry
// never creates a second admin.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearspace-io/tenantry/pkg/logger"
	"github.com/clearspace-io/tenantry/pkg/password"
	"github.com/clearspace-io/tenantry/pkg/tenant"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
	"github.com/clearspace-io/tenantry/svc/directory"
	"github.com/clearspace-io/tenantry/svc/registry"
)

// Registry is the subset of the registry store the service needs.
type Registry interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status tenant.Status) error
	Delete(ctx context.Context, id string) error
}

// Binder yields and evicts per-tenant database pools.
type Binder interface {
	Get(ctx context.Context, tenantID string) (*pgxpool.Pool, error)
	Evict(tenantID string)
}

// DatabaseManager creates and drops physical tenant databases on the server.
type DatabaseManager interface {
	Create(ctx context.Context, name string) error
	Drop(ctx context.Context, name string) error
}

// Migrator applies the tenant schema migration set to a bound pool.
type Migrator interface {
	Up(ctx context.Context, pool *pgxpool.Pool) error
}

// UserStore is the subset of the tenant user store the seeding step needs.
// Its queries run on the pool bound into the context.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*directory.User, error)
	Create(ctx context.Context, p directory.CreateUserParams) (*directory.User, error)
}

// Descriptor carries everything needed to create a tenant.
type Descriptor struct {
	TenantID      string
	CompanyName   string
	CompanyEmail  string
	Domain        string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Service is the tenant lifecycle orchestrator.
type Service struct {
	registry   Registry
	binder     Binder
	databases  DatabaseManager
	migrator   Migrator
	users      UserStore
	dbPrefix   string
	bcryptCost int
	cache      tenant.Cache
	log        *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost for the seeded admin password.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithCacheInvalidation registers the registry cache so tenant writes drop
// their scoped cache entries.
func WithCacheInvalidation(cache tenant.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the lifecycle service. dbPrefix must match the binder's
// configured prefix so both compute the same physical database names.
func New(reg Registry, binder Binder, databases DatabaseManager, migrator Migrator, users UserStore, dbPrefix string, opts ...Option) *Service {
	s := &Service{
		registry:  reg,
		binder:    binder,
		databases: databases,
		migrator:  migrator,
		users:     users,
		dbPrefix:  dbPrefix,
		cache:     tenant.NewNoOpCache(),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTenant runs the full creation flow and returns the ready tenant.
// On failure the returned error is a *StepError naming the step that failed;
// steps after Registering leave partially provisioned state behind that
// Resume can repair.
func (s *Service) CreateTenant(ctx context.Context, d Descriptor) (*tenant.Tenant, error) {
	if err := tenant.ValidateID(d.TenantID); err != nil {
		return nil, &StepError{Step: StepRegistering, Err: err}
	}

	t := &tenant.Tenant{
		ID:      d.TenantID,
		Name:    d.CompanyName,
		Email:   d.CompanyEmail,
		Status:  tenant.StatusProvisioning,
		Domains: []string{d.Domain},
	}
	if err := s.registry.Create(ctx, t); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			return nil, &StepError{Step: StepRegistering, Err: fmt.Errorf("%w: %s", ErrDuplicateTenant, d.TenantID)}
		}
		return nil, &StepError{Step: StepRegistering, Err: err}
	}

	s.log.InfoContext(ctx, "tenant registered", logger.TenantID(t.ID), logger.Component("provision"))

	if err := s.provision(ctx, t, d); err != nil {
		return nil, err
	}
	return t, nil
}

// Resume re-runs the creation flow from the database-provisioning step for a
// tenant whose earlier attempt failed after registration. Safe to call
// repeatedly: provisioning and migration are idempotent and seeding is
// guarded by the admin email lookup.
func (s *Service) Resume(ctx context.Context, d Descriptor) (*tenant.Tenant, error) {
	t, err := s.registry.GetByID(ctx, d.TenantID)
	if err != nil {
		return nil, err
	}

	if err := s.provision(ctx, t, d); err != nil {
		return nil, err
	}
	return t, nil
}

// provision runs steps 2–6 against an already registered tenant.
func (s *Service) provision(ctx context.Context, t *tenant.Tenant, d Descriptor) error {
	dbName := tenantdb.DBName(s.dbPrefix, t.ID)

	if err := s.databases.Create(ctx, dbName); err != nil {
		return s.fail(ctx, t, &StepError{Step: StepProvisioningDatabase, Err: err})
	}

	pool, err := s.binder.Get(ctx, t.ID)
	if err != nil {
		return s.fail(ctx, t, &StepError{Step: StepBound, Err: err})
	}

	if err := s.migrator.Up(ctx, pool); err != nil {
		return s.fail(ctx, t, &StepError{Step: StepMigrating, Err: errors.Join(ErrMigrationFailed, err)})
	}

	if err := s.seedAdmin(tenantdb.WithConn(ctx, pool), d); err != nil {
		return s.fail(ctx, t, &StepError{Step: StepSeeding, Err: err})
	}

	if err := s.registry.UpdateStatus(ctx, t.ID, tenant.StatusActive); err != nil {
		return s.fail(ctx, t, &StepError{Step: StepReady, Err: err})
	}
	t.Status = tenant.StatusActive
	tenant.InvalidateTenant(ctx, s.cache, t)

	s.log.InfoContext(ctx, "tenant ready", logger.TenantID(t.ID), logger.Component("provision"))
	return nil
}

// seedAdmin creates the initial admin user inside the bound tenant database.
// Keyed by email so a resumed run never seeds twice.
func (s *Service) seedAdmin(ctx context.Context, d Descriptor) error {
	_, err := s.users.GetByEmail(ctx, d.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, directory.ErrUserNotFound) {
		return err
	}

	hash, err := password.Hash(d.AdminPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = s.users.Create(ctx, directory.CreateUserParams{
		Name:         d.AdminName,
		Email:        d.AdminEmail,
		PasswordHash: hash,
		Role:         directory.RoleAdmin,
	})
	return err
}

// fail marks the tenant provisioning_failed (best effort) and returns err.
func (s *Service) fail(ctx context.Context, t *tenant.Tenant, err *StepError) error {
	s.log.ErrorContext(ctx, "tenant provisioning failed",
		logger.TenantID(t.ID),
		logger.Step(string(err.Step)),
		logger.Error(err.Err),
		logger.Component("provision"),
	)

	if updErr := s.registry.UpdateStatus(ctx, t.ID, tenant.StatusFailed); updErr != nil {
		s.log.ErrorContext(ctx, "failed to mark tenant as failed",
			logger.TenantID(t.ID), logger.Error(updErr), logger.Component("provision"))
	}
	t.Status = tenant.StatusFailed
	tenant.InvalidateTenant(ctx, s.cache, t)

	return err
}

// DropTenant removes a tenant entirely: registry row, connection pool, and
// physical database. Destructive and administrative only.
func (s *Service) DropTenant(ctx context.Context, tenantID string) error {
	t, err := s.registry.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.registry.Delete(ctx, tenantID); err != nil {
		return err
	}
	tenant.InvalidateTenant(ctx, s.cache, t)

	s.binder.Evict(tenantID)

	if err := s.databases.Drop(ctx, tenantdb.DBName(s.dbPrefix, tenantID)); err != nil {
		return fmt.Errorf("drop tenant database: %w", err)
	}

	s.log.InfoContext(ctx, "tenant dropped", logger.TenantID(tenantID), logger.Component("provision"))
	return nil
}
