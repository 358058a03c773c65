package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockLease is used when NewLocker receives a non-positive lease.
const DefaultLockLease = 15 * time.Second

// unlockScript deletes the lock only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward only while the lock holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Locker is a single-instance Redis mutex (SET NX PX). The lease bounds how
// long a crashed holder can block others; a live holder keeps extending it
// until it unlocks, so long appends never lose the lock midway.
type Locker struct {
	client redis.UniversalClient
	prefix string
	lease  time.Duration
	poll   time.Duration
}

// NewLocker creates a Locker storing keys under prefix+"lock:".
func NewLocker(client redis.UniversalClient, prefix string, lease time.Duration) *Locker {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	return &Locker{
		client: client,
		prefix: prefix + "lock:",
		lease:  lease,
		poll:   25 * time.Millisecond,
	}
}

// Lock blocks until key is acquired or ctx ends. The returned func releases
// the lock and stops the lease watchdog; extra calls are no-ops.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			return l.hold(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// hold starts the watchdog for an acquired lock and returns its release func.
func (l *Locker) hold(redisKey, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		l.watch(redisKey, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release with a fresh context so a canceled request still unlocks.
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		})
	}
}

// watch extends the lease every third of its length until stop closes or
// the key no longer carries token.
func (l *Locker) watch(redisKey, token string, stop <-chan struct{}) {
	interval := max(l.lease/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, l.lease.Milliseconds()).Int64()
		cancel()
		if err == nil && n == 0 {
			return
		}
	}
}
