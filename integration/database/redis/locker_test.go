package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/integration/database/redis"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, goredis.UniversalClient) {
	t.Helper()

	m := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, client
}

func TestLocker_KeyLayout(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	l := redis.NewLocker(client, "p:", time.Second)

	unlock, err := l.Lock(context.Background(), "s/a.txt")
	require.NoError(t, err)
	assert.True(t, m.Exists("p:lock:s/a.txt"))
	assert.False(t, m.Exists("p:lock:lock:s/a.txt"))

	unlock()
	assert.False(t, m.Exists("p:lock:s/a.txt"))

	// A second release must not touch a lock taken by someone else.
	unlock2, err := l.Lock(context.Background(), "s/a.txt")
	require.NoError(t, err)
	unlock()
	assert.True(t, m.Exists("p:lock:s/a.txt"))
	unlock2()
}

func TestLocker_Contention(t *testing.T) {
	t.Parallel()

	_, client := newMiniredis(t)
	l := redis.NewLocker(client, "p:", time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, redis.ErrLockTimeout)

	unlock()

	unlock, err = l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

func TestLocker_LeaseExtendedWhileHeld(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	const lease = 90 * time.Millisecond
	l := redis.NewLocker(client, "p:", lease)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// Two thirds of the lease pass on the server, then the holder gets a
	// chance to extend before another two thirds pass. Without extension the
	// key would be gone by now.
	m.FastForward(60 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	m.FastForward(60 * time.Millisecond)
	require.True(t, m.Exists("p:lock:k"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, redis.ErrLockTimeout)

	unlock()

	unlock, err = l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

func TestLocker_LostLockNotExtended(t *testing.T) {
	t.Parallel()

	m, client := newMiniredis(t)
	const lease = 60 * time.Millisecond
	l := redis.NewLocker(client, "p:", lease)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	// Another owner took the key; the old holder must leave its expiry alone.
	require.NoError(t, m.Set("p:lock:k", "other"))
	m.SetTTL("p:lock:k", lease)
	time.Sleep(50 * time.Millisecond)
	m.FastForward(lease)
	assert.False(t, m.Exists("p:lock:k"))
}
