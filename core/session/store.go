package session

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the persistence interface for sessions.
// Implementations must be safe for concurrent use and return ErrNotFound
// for unknown ids and tokens.
type Store[Data any] interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session[Data], error)
	GetByToken(ctx context.Context, token string) (*Session[Data], error)
	Save(ctx context.Context, session *Session[Data]) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes all expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
