package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/kbm/internal/accounts"
	"github.com/dmitrymomot/kbm/internal/inventory"
	"github.com/dmitrymomot/kbm/pkg/config"
	"github.com/dmitrymomot/kbm/pkg/controlplane"
	"github.com/dmitrymomot/kbm/pkg/httpserver"
	"github.com/dmitrymomot/kbm/pkg/identity"
	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/pg"
	"github.com/dmitrymomot/kbm/pkg/redis"
	"github.com/dmitrymomot/kbm/pkg/requestid"
	"github.com/dmitrymomot/kbm/pkg/respond"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

func serve(ctx context.Context) error {
	var (
		app      appConfig
		httpCfg  httpserver.Config
		tenantDB tenantdb.Config
		cpCfg    controlplane.Config
		redisCfg redis.Config
		idCfg    identity.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&app) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&tenantDB) },
		func() error { return config.Load(&cpCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&idCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	if cpCfg.Driver == controlplane.DriverPostgres {
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
	}
	registry, err := controlplane.Open(ctx, cpCfg, pgCfg, log)
	if err != nil {
		return fmt.Errorf("open control plane: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	metrics := tenantdb.NewMetrics()
	promRegistry.MustRegister(metrics.PrometheusCollectors()...)
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dbs := tenantdb.New(tenantDB, tenantdb.WithLogger(log), tenantdb.WithMetrics(metrics))

	closers := []httpserver.Option{
		httpserver.WithCloser("controlplane", registry.Close),
		httpserver.WithCloser("tenantdb", dbs.Close),
	}
	checks := []httpserver.Check{{Name: "controlplane", Fn: registry.Healthcheck}}

	var cache tenant.Cache = tenant.NewMemoryCache(tenant.DefaultCacheSize)
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			_ = dbs.Close()
			_ = registry.Close()
			return fmt.Errorf("connect redis: %w", err)
		}
		cache = tenant.NewRedisCache(client, redisCfg.KeyPrefix, log)
		closers = append(closers, httpserver.WithCloser("redis", client.Close))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	ids, err := newIdentity(idCfg, app, log)
	if err != nil {
		_ = dbs.Close()
		_ = registry.Close()
		return err
	}

	svc := controlplane.NewService(registry.Store, dbs,
		controlplane.WithCache(cache),
		controlplane.WithQuotas(app.quotas()),
		controlplane.WithLogger(log),
	)

	eh := respond.ErrorHandler(log)
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestid.Middleware,
		requestid.AccessLog(log),
		middleware.Recoverer,
		identity.Middleware(ids, identity.WithLogger(log)),
		tenant.Middleware(app.BaseDomain, registry.Store, dbs,
			tenant.WithCache(cache),
			tenant.WithCacheTTL(app.TenantCacheTTL),
			tenant.WithErrorHandler(eh),
			tenant.WithSkipPaths("/health", "/ready", "/metrics"),
			tenant.WithLogger(log),
		),
	)

	r.Get("/health", httpserver.LivenessHandler())
	r.Get("/ready", httpserver.ReadinessHandler(log, checks...))
	if app.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	accounts.NewHandler(svc, identity.FromRequest,
		accounts.WithAdminRole(app.adminRole()),
		accounts.WithLogger(log),
	).Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant(eh))
		inventory.NewHandler(inventory.WithLogger(log)).Routes(r)
	})

	log.InfoContext(ctx, "starting kbm",
		slog.String("base_domain", app.BaseDomain),
		slog.String("control_plane", string(cpCfg.Driver)),
		slog.String("session_scope", string(tenantDB.SessionScope)),
		slog.Bool("redis_cache", redisCfg.Enabled()),
	)

	srv := httpserver.NewFromConfig(httpCfg, append(closers, httpserver.WithLogger(log))...)
	if err := srv.Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newIdentity requires JWT_SECRET outside development. A development
// process without one gets a random secret, which leaves the admin API
// unreachable until a secret is configured.
func newIdentity(cfg identity.Config, app appConfig, log *slog.Logger) (*identity.Service, error) {
	if cfg.Secret == "" {
		if !app.development() {
			return nil, fmt.Errorf("JWT_SECRET is required in %s: %w", app.Env, identity.ErrMissingSigningKey)
		}
		log.Warn("JWT_SECRET not set, admin tokens cannot be issued")
		cfg.Secret = uuid.NewString()
	}
	return identity.New(cfg)
}
