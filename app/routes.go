package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/uploadgate/core/health"
	"github.com/dmitrymomot/uploadgate/core/response"
	"github.com/dmitrymomot/uploadgate/core/router"
	"github.com/dmitrymomot/uploadgate/middleware"
	"github.com/dmitrymomot/uploadgate/upload"
)

// Endpoint paths.
const (
	UploadPath = "/upload"
	LoginPath  = "/session/login"
	LogoutPath = "/session/logout"
)

func (a *App) routes() router.Router[*router.Context] {
	r := router.New[*router.Context](
		router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]),
		router.WithLogger[*router.Context](a.logger),
		router.WithMiddleware[*router.Context](
			middleware.RequestID[*router.Context](),
			middleware.ClientIP[*router.Context](),
			middleware.LoggingWithLogger[*router.Context](a.logger),
		),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](a.logger, a.checks...))
	r.Mount("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	r.With(
		upload.Recover[*router.Context](a.logger),
		middleware.Metrics[*router.Context](middleware.MetricsConfig{
			Namespace: a.config.MetricsNamespace,
			Registry:  a.registry,
		}),
		middleware.BodyLimitWithConfig[*router.Context](middleware.BodyLimitConfig{
			MaxSize:      a.config.Upload.MaxRequestSize,
			ErrorHandler: upload.BodyTooLarge,
		}),
		upload.Session[*router.Context](a.transport, a.logger),
	).Method(UploadPath, upload.Handler[*router.Context](a.receiver, a.config.Upload.MaxMemory), http.MethodPost, http.MethodPut)

	if a.users != nil {
		r.With(
			middleware.Session[*router.Context, upload.SessionData](a.transport),
		).Post(LoginPath, upload.Login[*router.Context](a.users))
		r.With(
			middleware.SessionWithConfig(middleware.SessionConfig[*router.Context, upload.SessionData]{
				Transport:   a.transport,
				Logger:      a.logger,
				RequireAuth: true,
			}),
		).Post(LogoutPath, upload.Logout[*router.Context]())
	}

	return r
}
