package upload

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/uploadgate/core/session"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSource looks up the user bound to an authenticated session.
// Unknown and disabled users are reported as ErrUserNotFound.
type UserSource interface {
	User(ctx context.Context, id uuid.UUID) (*UserRecord, error)
}

// Authenticator checks a username and password and returns the user id.
// A wrong pair is reported as ErrInvalidCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (uuid.UUID, error)
}

// UserStore is a UserSource that can also check credentials.
type UserStore interface {
	UserSource
	Authenticator
}

// WithUsers resolves the session user through src on every request.
// Without it the record cached in the session data is used as is.
func WithUsers(src UserSource) Option {
	return func(r *Receiver) {
		if src != nil {
			r.users = src
		}
	}
}

// SessionUser returns the user bound to sess, or nil for anonymous
// sessions and users that no longer exist.
func (r *Receiver) SessionUser(ctx context.Context, sess session.Session[SessionData]) (*UserRecord, error) {
	if r.users == nil {
		return sess.Data.User, nil
	}
	if !sess.IsAuthenticated() {
		return nil, nil
	}

	u, err := r.users.User(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, newError(ErrAuthorization, CodeDefault, MsgInternal, err)
	}
	return u, nil
}
