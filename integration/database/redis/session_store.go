package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/uploadgate/core/session"
)

var _ session.Store[struct{}] = (*SessionStore[struct{}])(nil)

// SessionStore keeps sessions as JSON under "<prefix>session:<id>" with a
// "<prefix>session_token:<token>" index. Both keys expire with the session,
// so DeleteExpired has nothing to do.
type SessionStore[Data any] struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore[Data any](client redis.UniversalClient, prefix string) *SessionStore[Data] {
	return &SessionStore[Data]{client: client, prefix: prefix}
}

func (s *SessionStore[Data]) idKey(id uuid.UUID) string {
	return s.prefix + "session:" + id.String()
}

func (s *SessionStore[Data]) tokenKey(token string) string {
	return s.prefix + "session_token:" + token
}

func (s *SessionStore[Data]) GetByID(ctx context.Context, id uuid.UUID) (*session.Session[Data], error) {
	raw, err := s.client.Get(ctx, s.idKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var sess session.Session[Data]
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *SessionStore[Data]) GetByToken(ctx context.Context, token string) (*session.Session[Data], error) {
	raw, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session token: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, session.ErrNotFound
	}
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Token != token {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// Save writes the session and its token index. A rotated token drops the
// previous index entry.
func (s *SessionStore[Data]) Save(ctx context.Context, sess *session.Session[Data]) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		if err := s.Delete(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}
		return nil
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	var oldToken string
	if prev, err := s.GetByID(ctx, sess.ID); err == nil && prev.Token != sess.Token {
		oldToken = prev.Token
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.idKey(sess.ID), raw, ttl)
		pipe.Set(ctx, s.tokenKey(sess.Token), sess.ID.String(), ttl)
		if oldToken != "" {
			pipe.Del(ctx, s.tokenKey(oldToken))
		}
		return nil
	})
	return err
}

func (s *SessionStore[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, s.idKey(id), s.tokenKey(sess.Token)).Err()
}

// DeleteExpired is a no-op: Redis expires both keys on its own.
func (s *SessionStore[Data]) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}
