package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/core/session"
	"github.com/dmitrymomot/uploadgate/integration/database/redis"
)

type cart struct {
	Items int `json:"items"`
}

func newSession(t *testing.T, ttl time.Duration) session.Session[cart] {
	t.Helper()

	sess, err := session.New[cart](session.NewSessionParams{IP: "192.0.2.1"}, ttl)
	require.NoError(t, err)
	return sess
}

func TestSessionStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	store := redis.NewSessionStore[cart](client, "p:")
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	sess.SetData(cart{Items: 3})
	require.NoError(t, store.Save(ctx, &sess))

	assert.True(t, m.Exists("p:session:"+sess.ID.String()))
	assert.True(t, m.Exists("p:session_token:"+sess.Token))
	assert.Greater(t, m.TTL("p:session:"+sess.ID.String()), 59*time.Minute)

	byID, err := store.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, byID.Token)
	assert.Equal(t, 3, byID.Data.Items)

	byToken, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, byToken.ID)
}

func TestSessionStore_TokenRotation(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	store := redis.NewSessionStore[cart](client, "p:")
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))
	oldToken := sess.Token

	userID := uuid.New()
	require.NoError(t, sess.Authenticate(userID))
	require.NoError(t, store.Save(ctx, &sess))

	assert.False(t, m.Exists("p:session_token:"+oldToken))
	_, err := store.GetByToken(ctx, oldToken)
	assert.ErrorIs(t, err, session.ErrNotFound)

	got, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, sess.ID, got.ID)
}

func TestSessionStore_Delete(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	store := redis.NewSessionStore[cart](client, "p:")
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	assert.False(t, m.Exists("p:session:"+sess.ID.String()))
	assert.False(t, m.Exists("p:session_token:"+sess.Token))

	_, err := store.GetByID(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), session.ErrNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	store := redis.NewSessionStore[cart](client, "p:")
	ctx := context.Background()

	sess := newSession(t, time.Minute)
	require.NoError(t, store.Save(ctx, &sess))

	m.FastForward(2 * time.Minute)
	_, err := store.GetByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionStore_SaveExpiredDeletes(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	store := redis.NewSessionStore[cart](client, "p:")
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))

	sess.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Save(ctx, &sess))
	assert.False(t, m.Exists("p:session:"+sess.ID.String()))

	fresh := newSession(t, time.Hour)
	fresh.ExpiresAt = time.Now().Add(-time.Second)
	assert.NoError(t, store.Save(ctx, &fresh))
}
