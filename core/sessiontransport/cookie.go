package sessiontransport

import (
	"errors"

	"github.com/dmitrymomot/uploadgate/core/cookie"
	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/session"
	"github.com/dmitrymomot/uploadgate/pkg/clientip"
)

// Cookie carries Session.Token in a signed cookie.
type Cookie[Data any] struct {
	manager   *session.Manager[Data]
	cookieMgr *cookie.Manager
	name      string
	secure    bool
}

// NewCookie creates a cookie-based session transport.
func NewCookie[Data any](mgr *session.Manager[Data], cookieMgr *cookie.Manager, name string, secure bool) *Cookie[Data] {
	return &Cookie[Data]{
		manager:   mgr,
		cookieMgr: cookieMgr,
		name:      name,
		secure:    secure,
	}
}

// Load returns the session referenced by the request cookie. A missing,
// tampered or stale cookie yields a fresh anonymous session.
func (c *Cookie[Data]) Load(ctx handler.Context) (session.Session[Data], error) {
	token, err := c.cookieMgr.GetSigned(ctx.Request(), c.name)
	if err == nil {
		sess, err := c.manager.GetByToken(ctx, token)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrExpired) {
			return session.Session[Data]{}, err
		}
	}

	return c.manager.New(ctx, session.NewSessionParams{
		IP:        clientip.GetIP(ctx.Request()),
		UserAgent: ctx.Request().UserAgent(),
	})
}

// Store persists sess and refreshes the cookie. Deleted sessions clear it.
func (c *Cookie[Data]) Store(ctx handler.Context, sess session.Session[Data]) error {
	if err := c.manager.Store(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			c.cookieMgr.Delete(ctx.ResponseWriter(), c.name)
			return nil
		}
		return err
	}

	return c.cookieMgr.SetSigned(ctx.ResponseWriter(), c.name, sess.Token,
		cookie.WithHTTPOnly(true),
		cookie.WithSecure(c.secure),
		cookie.WithMaxAge(int(c.manager.GetTTL().Seconds())),
	)
}
