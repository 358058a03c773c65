package middleware

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/core/response"
	"github.com/dmitrymomot/uploadgate/core/session"
)

type sessionKey struct{}

// SessionTransport loads and persists sessions for a request.
type SessionTransport[Data any] interface {
	Load(handler.Context) (session.Session[Data], error)
	Store(handler.Context, session.Session[Data]) error
}

// SessionConfig configures the session middleware.
type SessionConfig[C handler.Context, Data any] struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx C) bool
	// Transport loads and stores sessions (required)
	Transport SessionTransport[Data]
	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger
	// RequireAuth rejects requests without an authenticated session
	RequireAuth bool
	// ErrorHandler renders auth and store failures
	// Default: response.Error(response.ErrUnauthorized) or the store error
	ErrorHandler func(ctx C, err error) handler.Response
}

// Session loads the request session before the handler and stores whatever
// the handler left in the context before the response is rendered.
//
//	r.Use(middleware.Session[*router.Context, upload.SessionData](transport))
//
//	func handle(ctx *router.Context) handler.Response {
//		sess := middleware.MustGetSession[upload.SessionData](ctx)
//		sess.SetData(next)
//		middleware.SetSession(ctx, sess)
//		...
//	}
func Session[C handler.Context, Data any](transport SessionTransport[Data]) handler.Middleware[C] {
	return SessionWithConfig(SessionConfig[C, Data]{Transport: transport})
}

// SessionWithConfig creates a session middleware with custom configuration.
// Requests whose session fails to load run without one; store failures go
// to ErrorHandler.
func SessionWithConfig[C handler.Context, Data any](cfg SessionConfig[C, Data]) handler.Middleware[C] {
	if cfg.Transport == nil {
		panic("session middleware: transport is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ C, err error) handler.Response {
			return response.Error(err)
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			sess, err := cfg.Transport.Load(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return response.Error(ctxErr)
				}
				cfg.Logger.ErrorContext(ctx, "failed to load session", logger.Error(err))
				if cfg.RequireAuth {
					return cfg.ErrorHandler(ctx, response.ErrUnauthorized)
				}
				// Without a loaded session there is nothing to store back.
				return next(ctx)
			}

			if cfg.RequireAuth && !sess.IsAuthenticated() {
				return cfg.ErrorHandler(ctx, response.ErrUnauthorized)
			}

			ctx.SetValue(sessionKey{}, sess)

			resp := next(ctx)

			current, ok := GetSession[Data](ctx)
			if !ok {
				return resp
			}
			if err := cfg.Transport.Store(ctx, current); err != nil {
				cfg.Logger.ErrorContext(ctx, "failed to store session",
					logger.SessionID(current.ID.String()),
					logger.Error(err),
				)
				return cfg.ErrorHandler(ctx, err)
			}

			return resp
		}
	}
}

// GetSession returns the request session.
func GetSession[Data any](ctx handler.Context) (session.Session[Data], bool) {
	if ctx == nil {
		return session.Session[Data]{}, false
	}
	sess, ok := ctx.Value(sessionKey{}).(session.Session[Data])
	return sess, ok
}

// MustGetSession returns the request session or panics when the middleware
// is not installed.
func MustGetSession[Data any](ctx handler.Context) session.Session[Data] {
	sess, ok := GetSession[Data](ctx)
	if !ok {
		panic("session not found in context")
	}
	return sess
}

// SetSession replaces the request session; the middleware stores it after
// the handler returns.
func SetSession[Data any](ctx handler.Context, sess session.Session[Data]) {
	ctx.SetValue(sessionKey{}, sess)
}
