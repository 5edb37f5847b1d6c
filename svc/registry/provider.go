package registry

import (
	"context"
	"time"

	"github.com/clearspace-io/tenantry/pkg/tenant"
)

// CachedProvider layers a tenant cache over the registry store. Lookups are
// cached under the identifier they were made with; writes invalidate every
// identifier the tenant is reachable by (ID plus each alias) — scoped
// invalidation, never a flush.
type CachedProvider struct {
	store *Store
	cache tenant.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps the store with the given cache.
func NewCachedProvider(store *Store, cache tenant.Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{store: store, cache: cache, ttl: ttl}
}

// GetByIdentifier implements tenant.Provider with read-through caching.
func (p *CachedProvider) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Tenant, error) {
	if t, ok := p.cache.Get(ctx, identifier); ok {
		return t, nil
	}

	t, err := p.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	p.cache.Set(ctx, identifier, t, p.ttl)
	return t, nil
}

// Invalidate drops every cache entry for the tenant. Call after any registry
// write that changes the tenant's record or aliases.
func (p *CachedProvider) Invalidate(ctx context.Context, t *tenant.Tenant) {
	tenant.InvalidateTenant(ctx, p.cache, t)
}
