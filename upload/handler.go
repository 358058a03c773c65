package upload

import (
	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/middleware"
)

// anonymousScope is the lock scope for requests without a session.
const anonymousScope = "anonymous"

// Handler returns the upload endpoint. It reads the session placed by
// middleware.Session and stores the updated upload state back into it.
// Chunked uploads need a session to carry progress between requests.
//
//	r.Method("/upload", upload.Handler[*router.Context](receiver, cfg.MaxMemory), http.MethodPost, http.MethodPut)
func Handler[C handler.Context](rc *Receiver, maxMemory int64) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		req, err := ParseRequest(ctx.Request(), maxMemory)
		if err != nil {
			rc.Reject(ctx, req, err)
			return Failure(err)
		}

		sess, ok := middleware.GetSession[SessionData](ctx)
		scope := anonymousScope
		state := sess.Data
		if ok {
			scope = sess.ID.String()
			user, err := rc.SessionUser(ctx, sess)
			if err != nil {
				rc.Reject(ctx, req, err)
				return Failure(err)
			}
			state.User = user
		}

		out, err := rc.Receive(ctx, scope, req, state)
		if ok && out.Changed {
			sess.SetData(out.State)
			middleware.SetSession(ctx, sess)
		}
		if err != nil {
			return Failure(err)
		}
		return Success()
	}
}

// BodyTooLarge matches middleware.BodyLimitConfig.ErrorHandler and reports
// an oversized request the way a failed transfer is reported.
func BodyTooLarge(_ handler.Context, _, _ int64) handler.Response {
	return Failure(newError(ErrTransport, CodeTransport, MsgTransport, middleware.ErrBodyTooLarge))
}
