package tenantdb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config describes how tenant databases are reached. ConnString points at the
// database server; the database name in it is replaced per tenant.
type Config struct {
	ConnString      string        `env:"TENANT_PG_CONN_URL,required"`                // Base connection string; the database name is overridden per tenant.
	Prefix          string        `env:"TENANT_DB_PREFIX" envDefault:"tenant_"`      // Prefix for physical tenant database names.
	MaxConns        int32         `env:"TENANT_PG_MAX_CONNS" envDefault:"4"`         // Per-tenant pool size; total connections scale with active tenants.
	MaxConnIdleTime time.Duration `env:"TENANT_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime time.Duration `env:"TENANT_PG_MAX_CONN_LIFETIME" envDefault:"30m"`
}

// DBName computes the physical database name for a tenant.
func DBName(prefix, tenantID string) string {
	return prefix + tenantID
}

// Binder yields a connection pool bound to one tenant's database.
type Binder interface {
	// Get returns the pool for the tenant's physical database, dialing it on
	// first use. Returns ErrDatabaseUnavailable when the database does not
	// exist or cannot be reached.
	Get(ctx context.Context, tenantID string) (*pgxpool.Pool, error)
}

// Pools maintains one pgx connection pool per tenant, keyed by tenant ID.
// Each pool is pinned to its tenant's physical database for its whole
// lifetime, so concurrent requests for different tenants can never observe
// each other's binding.
type Pools struct {
	cfg    Config
	mu     sync.Mutex
	pools  map[string]*pgxpool.Pool
	closed bool
}

// NewPools creates an empty pool set. Pools are dialed lazily on first Get.
func NewPools(cfg Config) *Pools {
	return &Pools{
		cfg:   cfg,
		pools: make(map[string]*pgxpool.Pool),
	}
}

// Get returns the connection pool for the tenant's database, creating it on
// first use. The returned handle must not be cached by the caller beyond the
// current unit of work; subsequent requests must call Get again.
func (p *Pools) Get(ctx context.Context, tenantID string) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pool, ok := p.pools[tenantID]; ok {
		return pool, nil
	}

	pool, err := p.dial(ctx, DBName(p.cfg.Prefix, tenantID))
	if err != nil {
		return nil, err
	}
	p.pools[tenantID] = pool
	return pool, nil
}

// dial opens and verifies a pool for the named database. Caller holds the lock.
func (p *Pools) dial(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	connCfg, err := pgxpool.ParseConfig(p.cfg.ConnString)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	connCfg.ConnConfig.Database = dbName
	if p.cfg.MaxConns > 0 {
		connCfg.MaxConns = p.cfg.MaxConns
	}
	connCfg.MaxConnIdleTime = p.cfg.MaxConnIdleTime
	connCfg.MaxConnLifetime = p.cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, connCfg)
	if err != nil {
		return nil, errors.Join(ErrDatabaseUnavailable, err)
	}

	// Ping before handing the pool out so a missing database surfaces here,
	// at bind time, not on the first query inside a handler.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrDatabaseUnavailable, err)
	}

	return pool, nil
}

// IsMissingDatabase detects SQLSTATE 3D000 (invalid_catalog_name), raised by
// the server when connecting to a database that does not exist.
func IsMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "3D000"
}

// Evict closes and forgets the tenant's pool. Used when a tenant is deleted
// or its database is moved; the next Get re-dials from scratch.
func (p *Pools) Evict(tenantID string) {
	p.mu.Lock()
	pool, ok := p.pools[tenantID]
	delete(p.pools, tenantID)
	p.mu.Unlock()

	if ok {
		pool.Close()
	}
}

// Close shuts down every pool. Subsequent Get calls return ErrClosed.
func (p *Pools) Close() {
	p.mu.Lock()
	pools := p.pools
	p.pools = make(map[string]*pgxpool.Pool)
	p.closed = true
	p.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}

// WithConn runs fn with the tenant's pool bound into the context. This is the
// programmatic equivalent of the request middleware, for jobs that operate on
// a tenant outside the HTTP pipeline (provisioning, maintenance).
func (p *Pools) WithConn(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	pool, err := p.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	return fn(WithConn(ctx, pool))
}
