// Package app assembles the budget service from configuration: the store,
// the credit ledger with its plugins, the billing gateway, the cache, the
// event producer and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/api"
	audithook "github.com/ficoreafrica/ledger/audit_hook"
	"github.com/ficoreafrica/ledger/auth"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/cache"
	"github.com/ficoreafrica/ledger/config"
	"github.com/ficoreafrica/ledger/events"
	"github.com/ficoreafrica/ledger/observability"
	"github.com/ficoreafrica/ledger/service"
	"github.com/ficoreafrica/ledger/store"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "ficore"

// App is the assembled service.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	store    store.Store
	engine   *ledger.Ledger
	gateway  *billing.Gateway
	service  *service.Service
	auth     *auth.Authenticator
	producer *events.Producer
	cache    cache.BudgetCache
	closers  []func() error

	registry *prometheus.Registry
	server   *api.Server
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithStore uses s instead of opening the configured store.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// New builds the App. The store is opened but not migrated; call Start.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	if err := cfg.RequireSecret(); err != nil {
		return nil, err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}

	if a.store == nil {
		st, err := OpenStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store = st
	}

	a.producer = events.NewProducer(events.Config{
		Brokers:  cfg.Events.Brokers,
		Topic:    cfg.Events.Topic,
		Username: cfg.Events.Username,
		Password: cfg.Events.Password,
		TLS:      cfg.Events.TLS,
	}, a.logger)
	a.closers = append(a.closers, a.producer.Close)

	a.cache = cache.Nop{}
	if cfg.Cache.Addr != "" {
		redisCache, err := cache.Dial(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithPrefix(cfg.Cache.Prefix),
			cache.WithLogger(a.logger),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = redisCache
		a.closers = append(a.closers, redisCache.Close)
	}

	a.engine = ledger.New(a.store, a.ledgerOpts()...)

	a.gateway, err = billing.NewGateway(a.engine,
		billing.WithSchedule(schedule),
		billing.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = service.New(a.store, a.gateway,
		service.WithCache(a.cache),
		service.WithPublisher(a.producer),
		service.WithLogger(a.logger),
	)

	a.auth, err = auth.New(cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	serverOpts := []api.Option{
		api.WithLogger(a.logger),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithTimeout(cfg.Server.RequestTimeout),
		api.WithHealthCheck(a.Health),
	}
	if a.registry != nil {
		serverOpts = append(serverOpts, api.WithMetrics(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}
	a.server = api.NewServer(a.service, a.auth, serverOpts...)

	return a, nil
}

// ledgerOpts builds the engine options from the configuration.
func (a *App) ledgerOpts() []ledger.Option {
	opts := []ledger.Option{ledger.WithLogger(a.logger)}
	if a.cfg.Store.DisableMigrate {
		opts = append(opts, ledger.WithoutMigrate())
	}

	if !a.cfg.Server.DisableMetrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		factory := observability.NewPrometheusFactory(a.registry, metricsNamespace)
		opts = append(opts, ledger.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	if a.cfg.Events.PublishAudit && a.producer.Enabled() {
		opts = append(opts, ledger.WithPlugin(audithook.New(
			events.AuditRecorder(a.producer),
			audithook.WithLogger(a.logger),
			audithook.WithSkip(a.cfg.Events.AuditSkip...),
			audithook.WithMinSeverity(a.cfg.Events.AuditMinSeverity),
		)))
	}

	return opts
}

// Start starts the ledger, migrating the store unless disabled.
func (a *App) Start(ctx context.Context) error {
	return a.engine.Start(ctx)
}

// Close releases the cache and producer, then stops the ledger, which
// closes the store. Close is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	switch {
	case a.engine != nil:
		if err := a.engine.Stop(); err != nil {
			errs = append(errs, err)
		}
	case a.store != nil:
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.engine, a.store = nil, nil
	return errors.Join(errs...)
}

// Health pings the store.
func (a *App) Health(ctx context.Context) error {
	if a.store == nil {
		return errors.New("app: store not initialized")
	}
	return a.store.Ping(ctx)
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Ledger returns the credit ledger.
func (a *App) Ledger() *ledger.Ledger { return a.engine }

// Auth returns the token authenticator.
func (a *App) Auth() *auth.Authenticator { return a.auth }

// Serve listens on the configured address until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.logger.Info("listening", "addr", a.cfg.Server.Addr, "store", a.cfg.Store.Driver)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("app: http server: %w", err)
	}
}
