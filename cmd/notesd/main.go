// Command notesd serves the notes application API.
//
// Tenants are resolved from the X-Tenant header, falling back to the
// leftmost subdomain label of the Host. Both identify either a tenant ID
// or a registered domain alias. Every request past resolution runs against
// that tenant's own database.
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

	"github.com/clearspace-io/tenantry/modules/notes"
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
	"github.com/clearspace-io/tenantry/svc/registry"
)

type appConfig struct {
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat logger.Format `env:"LOG_FORMAT" envDefault:"json"`

	// DomainSuffix is stripped from the Host before the subdomain lookup,
	// e.g. ".localhost" turns acme.localhost into acme.
	DomainSuffix string `env:"TENANT_DOMAIN_SUFFIX" envDefault:".localhost"`

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
		notesCfg  notes.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&tenantCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&notesCfg)

	log := logger.New(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithFormat(appCfg.LogFormat),
		logger.WithService("notesd"),
		logger.WithContextExtractors(tenant.LoggerExtractor(), accesstoken.LoggerExtractor()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, appCfg, pgCfg, tenantCfg, httpCfg, notesCfg); err != nil {
		log.ErrorContext(ctx, "notesd exited", logger.Error(err))
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
	notesCfg notes.Config,
) error {
	registryDB, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer registryDB.Close()

	cache, err := newCache(ctx, appCfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	pools := tenantdb.NewPools(tenantCfg)
	defer pools.Close()

	store := registry.NewStore(registryDB)
	provider := registry.NewCachedProvider(store, cache, appCfg.CacheTTL)

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

	r.Route("/api", func(r chi.Router) {
		r.Use(tenant.Middleware(
			tenant.NewCompositeResolver(
				tenant.NewHeaderResolver("X-Tenant"),
				tenant.NewSubdomainResolver(appCfg.DomainSuffix),
			),
			provider,
			tenant.WithCache(cache, appCfg.CacheTTL),
		))
		r.Use(tenantdb.Middleware(pools, nil))

		r.Mount("/", notes.Router(notesCfg, directory.NewUsers(), directory.NewTokens(), notes.NewStore()))
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

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
