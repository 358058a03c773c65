package upload

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/response"
	"github.com/dmitrymomot/uploadgate/middleware"
)

type loginResult struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// Login checks the username and password form fields and binds the user to
// the request session. The session token is rotated; chunk progress is kept.
// It needs middleware.Session in front of it.
func Login[C handler.Context](auth Authenticator) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		req := ctx.Request()
		username := strings.TrimSpace(req.PostFormValue("username"))
		password := req.PostFormValue("password")
		if username == "" || password == "" {
			return response.Error(response.ErrBadRequest.WithMessage("username and password are required"))
		}

		sess, ok := middleware.GetSession[SessionData](ctx)
		if !ok {
			return response.Error(response.ErrInternalServerError)
		}

		id, err := auth.Authenticate(ctx, username, password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserNotFound) {
				return response.Error(response.ErrUnauthorized.WithMessage("invalid username or password"))
			}
			return response.Error(err)
		}

		data := sess.Data.Clone()
		data.User = nil
		if err := sess.Authenticate(id, data); err != nil {
			return response.Error(err)
		}
		middleware.SetSession(ctx, sess)

		return response.NoCache(response.JSON(loginResult{Authenticated: true, Username: username}))
	}
}

// Logout ends the request session; the transport clears the cookie.
func Logout[C handler.Context]() handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		sess, ok := middleware.GetSession[SessionData](ctx)
		if !ok {
			return response.Error(response.ErrUnauthorized)
		}
		sess.Logout()
		middleware.SetSession(ctx, sess)
		return response.NoContent()
	}
}
