package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/sessionstore"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/retry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]string{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

// resources tracks everything opened at startup so it can be closed together.
type resources struct {
	backend  sessionstore.Backend
	counters middleware.CounterStore
	keyFn    func(string) string
	ready    map[string]controllers.Pinger
	closers  []func() error
}

func (r *resources) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i]())
	}
	return err
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*resources, error) {
	res := &resources{ready: map[string]controllers.Pinger{}}

	switch cfg.Storage.DriverKind() {
	case config.StorageDriverRedis:
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, redisClient.Close)
		res.backend = sessionstore.NewRedis(redisClient, cfg.Storage.TTL)
		res.counters = redisClient
		res.keyFn = redisClient.RateLimitKey
		res.ready["redis"] = redisClient

	case config.StorageDriverSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, dbClient.Close)
		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			return nil, multierr.Append(err, res.Close())
		}
		res.backend = sessionstore.NewSQL(dbClient.DB(), cfg.Storage.TTL)
		res.ready["database"] = dbClient

	default:
		res.backend = sessionstore.NewMemory(cfg.Storage.TTL)
	}

	if res.counters == nil {
		res.counters = middleware.NewMemoryCounter()
	}
	return res, nil
}

func newCatalog(cfg *config.Config, logg *logger.Logger, m *metrics.StorefrontMetrics) (*catalog.Provider, error) {
	static := catalog.NewStaticSource(nil, nil)
	if cfg.Catalog.SourceKind() != config.CatalogSourceRemote {
		return catalog.NewProvider(catalog.ProviderParams{Source: static, Logger: logg, Metrics: m})
	}

	remote, err := catalog.NewRemoteSource(cfg.Catalog.BaseURL, catalog.RemoteOptions{
		Timeout:     cfg.Catalog.Timeout,
		MaxAttempts: cfg.Catalog.MaxAttempts,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	})
	if err != nil {
		return nil, err
	}
	params := catalog.ProviderParams{Source: remote, Logger: logg, Metrics: m}
	if cfg.Catalog.FallbackToStatic {
		params.Fallback = static
	}
	return catalog.NewProvider(params)
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	res, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	products, err := newCatalog(cfg, logg, storefrontMetrics)
	if err != nil {
		return err
	}

	provider, err := payment.NewFromConfig(ctx, cfg, logg)
	if err != nil {
		return err
	}

	pricing, err := cfg.Pricing.Parsed()
	if err != nil {
		return err
	}
	carts := cart.NewRegistry(res.backend, cart.Options{
		Pricing: cart.PricingFromConfig(pricing),
		Logger:  logg,
		Metrics: storefrontMetrics,
	})

	flows := checkout.NewRegistry(func(ctx context.Context, sessionID string) (*checkout.Flow, error) {
		handle, err := carts.Handle(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return checkout.NewFlow(checkout.Params{
			Cart:             handle,
			Provider:         provider,
			Currency:         cfg.Payment.Currency,
			PrepareTimeout:   cfg.Checkout.PrepareTimeout,
			AuthorizeTimeout: cfg.Checkout.AuthorizeTimeout,
			Logger:           logg,
			Metrics:          storefrontMetrics,
		})
	})

	adminClient, err := admin.NewClient(cfg.Admin, nil, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		Catalog:    products,
		Carts:      carts,
		Checkout:   flows,
		Admin:      admin.NewSessions(adminClient, res.backend, logg),
		Counters:   res.counters,
		CounterKey: res.keyFn,
		Ready:      res.ready,
		Gatherer:   registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"addr":     addr,
		"storage":  cfg.Storage.DriverKind(),
		"catalog":  cfg.Catalog.SourceKind(),
		"payments": cfg.Payment.ProviderKind(),
	})
	logg.Info(runCtx, "starting storefront api")

	purger, _ := res.backend.(sessionstore.Purger)
	sweeper, err := NewSweeper(SweeperParams{
		Purger:    purger,
		Evictors:  map[string]IdleEvictor{"carts": carts, "checkouts": flows},
		IdleEvict: cfg.Storage.IdleEvict,
		Logger:    logg,
		Interval:  cfg.Storage.PurgeInterval,
	})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()
		logg.Info(shutdownCtx, "shutting down storefront api")
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error { return sweeper.Run(groupCtx) })

	return group.Wait()
}
