package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/middleware"
)

var errNilResponse = errors.New("upload handler returned nil response")

// Session wraps middleware.SessionWithConfig for the upload route. A failed
// session write is answered with the JSON-RPC error envelope; the cause is
// logged, never sent.
func Session[C handler.Context](transport middleware.SessionTransport[SessionData], log *slog.Logger) handler.Middleware[C] {
	return middleware.SessionWithConfig(middleware.SessionConfig[C, SessionData]{
		Transport: transport,
		Logger:    log,
		ErrorHandler: func(_ C, err error) handler.Response {
			return Failure(newError(ErrTransport, CodeDefault, MsgInternal, err))
		},
	})
}

// Recover turns panics and nil responses below it into the JSON-RPC error
// envelope, so the upload route never answers with the generic router error.
// Install it outermost on the upload route.
func Recover[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fail := func(ctx C, p any) handler.Response {
		log.ErrorContext(ctx, "upload panic recovered",
			slog.Any("value", p),
			slog.String("stack", string(debug.Stack())),
			logger.Path(ctx.Request().URL.Path),
		)
		return Failure(fmt.Errorf("panic: %v", p))
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) (resp handler.Response) {
			defer func() {
				if p := recover(); p != nil {
					resp = fail(ctx, p)
				}
			}()

			resp = next(ctx)
			if resp == nil {
				log.ErrorContext(ctx, "upload handler returned no response", logger.Error(errNilResponse))
				return Failure(errNilResponse)
			}

			return func(w http.ResponseWriter, r *http.Request) (err error) {
				defer func() {
					if p := recover(); p != nil {
						err = fail(ctx, p)(w, r)
					}
				}()
				return resp(w, r)
			}
		}
	}
}
