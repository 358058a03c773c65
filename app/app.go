package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/uploadgate/core/config"
	"github.com/dmitrymomot/uploadgate/core/cookie"
	"github.com/dmitrymomot/uploadgate/core/health"
	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/core/router"
	"github.com/dmitrymomot/uploadgate/core/server"
	"github.com/dmitrymomot/uploadgate/core/session"
	"github.com/dmitrymomot/uploadgate/core/sessiontransport"
	"github.com/dmitrymomot/uploadgate/core/storage"
	"github.com/dmitrymomot/uploadgate/integration/database/pg"
	"github.com/dmitrymomot/uploadgate/integration/database/redis"
	"github.com/dmitrymomot/uploadgate/integration/storage/s3"
	"github.com/dmitrymomot/uploadgate/middleware"
	"github.com/dmitrymomot/uploadgate/upload"
	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

// App owns every long-lived component of the upload service.
type App struct {
	config   Config
	logger   *slog.Logger
	registry *prometheus.Registry
	tracing  trace.TracerProvider
	source   upload.ConfigSource
	users    upload.UserStore

	store     *storage.Local
	sessions  *session.Manager[upload.SessionData]
	transport middleware.SessionTransport[upload.SessionData]
	receiver  *upload.Receiver
	janitor   *upload.Janitor
	server    *server.Server
	router    router.Router[*router.Context]

	checks  []health.Check
	closers []func()
}

// Option customizes an App before its components are built.
type Option func(*App) error

// WithLogger replaces the logger built from LOG_LEVEL and APP_ENV.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = l
		return nil
	}
}

// WithRegistry sets the Prometheus registry served on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		a.registry = reg
		return nil
	}
}

// WithTracerProvider sends upload spans to tp. Without it the receiver uses
// the global otel provider, which records nothing until one is installed.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *App) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		a.tracing = tp
		return nil
	}
}

// WithConfigSource bypasses the configured config store driver.
func WithConfigSource(src upload.ConfigSource) Option {
	return func(a *App) error {
		if src == nil {
			return upload.ErrNilConfigSource
		}
		a.source = src
		return nil
	}
}

// WithUsers sets the user store behind login and per-user upload
// directories. With WithConfigSource and no WithUsers, login is disabled.
func WithUsers(users upload.UserStore) Option {
	return func(a *App) error {
		if users == nil {
			return errors.New("user store cannot be nil")
		}
		a.users = users
		return nil
	}
}

// NewFromEnv loads Config from the environment and builds the App.
func NewFromEnv(ctx context.Context, opts ...Option) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

// New connects every backing service and builds the HTTP stack. On error
// the resources opened so far are released.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	a := &App{config: cfg}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.logger == nil {
		a.logger = newLogger(cfg)
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newLogger(cfg Config) *slog.Logger {
	mode := logger.WithDevelopment(cfg.AppName)
	if cfg.IsProduction() {
		mode = logger.WithProduction(cfg.AppName)
	}
	return logger.New(
		mode,
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
}

func (a *App) build(ctx context.Context) error {
	var (
		sessionStore session.Store[upload.SessionData] = session.NewMemoryStore[upload.SessionData]()
		receiverOpts                                   = []upload.Option{
			upload.WithLogger(a.logger),
			upload.WithMetrics(upload.NewMetrics(a.registry, a.config.MetricsNamespace)),
		}
	)
	if a.tracing != nil {
		receiverOpts = append(receiverOpts, upload.WithTracer(a.tracing.Tracer(upload.TracerName)))
	}

	if a.config.RedisEnabled {
		client, err := redis.Connect(ctx, a.config.Redis)
		if err != nil {
			return err
		}
		a.onClose(func() { _ = client.Close() })
		a.addCheck("redis", redis.Healthcheck(client))
		sessionStore, receiverOpts = a.withRedis(client, receiverOpts)
	}

	sessions, err := session.NewFromConfig(a.config.Session, sessionStore)
	if err != nil {
		return err
	}
	a.sessions = sessions

	cookies, err := cookie.NewFromConfig(a.config.Cookie)
	if err != nil {
		return err
	}
	a.transport = sessiontransport.NewCookieFromConfig(a.config.SessionCookie, sessions, cookies)

	if a.source == nil {
		sources, err := configstore.NewFromConfig(ctx, a.config.ConfigStore, a.connectPostgres)
		if err != nil {
			return err
		}
		a.source = sources.Configs
		if a.users == nil {
			a.users = sources.Users
		}
	}
	if a.users != nil {
		receiverOpts = append(receiverOpts, upload.WithUsers(a.users))
	}

	store, err := storage.NewLocal(a.config.Upload.StorageRoot)
	if err != nil {
		return err
	}
	a.store = store

	if a.config.S3.Enabled() {
		mirror, err := s3.New(ctx, a.config.S3)
		if err != nil {
			return err
		}
		a.addCheck("s3", mirror.Healthcheck())
		receiverOpts = append(receiverOpts, upload.WithMirror(store, mirror))
	}

	receiver, err := upload.NewFromConfig(a.config.Upload, a.source, receiverOpts...)
	if err != nil {
		return err
	}
	a.receiver = receiver
	a.janitor = upload.NewJanitor(a.config.Upload.Roots(), sessions, a.config.Janitor, a.logger.With(logger.Component("janitor")))

	srv, err := server.NewFromConfig(a.config.Server, server.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.server = srv
	a.router = a.routes()

	return nil
}

func (a *App) withRedis(client goredis.UniversalClient, opts []upload.Option) (session.Store[upload.SessionData], []upload.Option) {
	prefix := a.config.Redis.KeyPrefix
	locker := redis.NewLocker(client, prefix, a.config.Redis.LockLease)
	return redis.NewSessionStore[upload.SessionData](client, prefix), append(opts, upload.WithLocker(locker))
}

// connectPostgres is the configstore.PoolFunc: PG_* variables are only
// required when the postgres driver is selected.
func (a *App) connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(pool.Close)
	a.addCheck("postgres", pg.Healthcheck(pool))
	return pool, nil
}

func (a *App) addCheck(name string, fn func(context.Context) error) {
	a.checks = append(a.checks, health.Check{Name: name, Fn: fn})
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Sweep runs a single janitor pass.
func (a *App) Sweep(ctx context.Context) (upload.SweepReport, error) {
	return a.janitor.Sweep(ctx)
}

// Run serves HTTP and runs the janitor loop until ctx is canceled or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(ctx, a.router))
	g.Go(func() error { return a.janitor.Run(ctx) })

	a.logger.InfoContext(ctx, "uploadgate started",
		slog.String("addr", a.config.Server.Addr),
		logger.Path(a.store.Root()),
	)
	return g.Wait()
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
