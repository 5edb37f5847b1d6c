// Command admind serves the admin panel API.
//
// Tenant requests are path-scoped (/{tenant}/api/...): the first path
// segment names the tenant, the middleware chain resolves it against the
// registry, binds the tenant database pool, and authenticates the bearer
// token inside that database. The central tenant management API lives
// under /api/admin/tenants and runs outside any tenant scope.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clearspace-io/tenantry/migrations"
	"github.com/clearspace-io/tenantry/modules/admin"
	"github.com/clearspace-io/tenantry/modules/announce"
	"github.com/clearspace-io/tenantry/pkg/accesstoken"
	"github.com/clearspace-io/tenantry/pkg/config"
	"github.com/clearspace-io/tenantry/pkg/httpserver"
	"github.com/clearspace-io/tenantry/pkg/httpx"
	"github.com/clearspace-io/tenantry/pkg/logger"
	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/redis"
	"github.com/clearspace-io/tenantry/pkg/tenant"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
	"github.com/clearspace-io/tenantry/svc/directory"
	"github.com/clearspace-io/tenantry/svc/provision"
	"github.com/clearspace-io/tenantry/svc/registry"
)

type appConfig struct {
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat logger.Format `env:"LOG_FORMAT" envDefault:"json"`

	// CacheBackend selects the tenant lookup cache: "redis" shares
	// invalidation across replicas, "memory" suits a single instance.
	CacheBackend string        `env:"TENANT_CACHE" envDefault:"memory"`
	CacheTTL     time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
}

func main() {
	_ = config.LoadEnv()

	var (
		appCfg    appConfig
		pgCfg     pg.Config
		tenantCfg tenantdb.Config
		httpCfg   httpserver.Config
		adminCfg  admin.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&tenantCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&adminCfg)

	log := logger.New(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithFormat(appCfg.LogFormat),
		logger.WithService("admind"),
		logger.WithContextExtractors(tenant.LoggerExtractor(), accesstoken.LoggerExtractor()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, appCfg, pgCfg, tenantCfg, httpCfg, adminCfg); err != nil {
		log.ErrorContext(ctx, "admind exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	log *slog.Logger,
	appCfg appConfig,
	pgCfg pg.Config,
	tenantCfg tenantdb.Config,
	httpCfg httpserver.Config,
	adminCfg admin.Config,
) error {
	registryDB, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer registryDB.Close()

	if err := pg.Migrate(ctx, registryDB, migrations.FS, migrations.RegistryDir, "registry_goose_version", log); err != nil {
		return err
	}

	cache, err := newCache(ctx, appCfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	pools := tenantdb.NewPools(tenantCfg)
	defer pools.Close()

	store := registry.NewStore(registryDB)
	provider := registry.NewCachedProvider(store, cache, appCfg.CacheTTL)
	users := directory.NewUsers()
	tokens := directory.NewTokens()

	prov := provision.New(
		store,
		pools,
		provision.NewAdminDB(registryDB),
		provision.GooseMigrator{FS: migrations.FS, Dir: migrations.TenantDir, Table: "goose_db_version", Log: log},
		users,
		tenantCfg.Prefix,
		provision.WithCacheInvalidation(cache),
		provision.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)

	healthy := pg.Healthcheck(registryDB)
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := healthy(req.Context()); err != nil {
			httpx.Error(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mount("/api/admin/tenants", admin.TenantsRouter(prov, store))

	r.Route("/{tenant}", func(r chi.Router) {
		r.Use(tenant.Middleware(
			tenant.NewPathResolver("tenant"),
			provider,
			tenant.WithCache(cache, appCfg.CacheTTL),
		))
		r.Use(tenantdb.Middleware(pools, nil))

		r.Route("/api", func(r chi.Router) {
			r.Mount("/", admin.UsersRouter(adminCfg, users, tokens))
			r.With(accesstoken.Middleware(tokens)).
				Mount("/announcements", announce.Router(announce.NewStore()))
		})
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// newCache builds the tenant lookup cache from configuration. The redis
// backend is required to answer a ping at startup so a misconfigured URL
// fails fast instead of degrading every request.
func newCache(ctx context.Context, appCfg appConfig) (tenant.Cache, error) {
	if appCfg.CacheBackend != "redis" {
		return tenant.NewInMemoryCache(), nil
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	return tenant.NewRedisCache(client, "tenant:"), nil
}
