// Package redis connects to Redis with go-redis and provides the shared
// session store and the cross-instance upload lock.
//
//	client, err := redis.Connect(ctx, cfg)
//	store := redis.NewSessionStore[upload.SessionData](client, cfg.KeyPrefix)
//	locker := redis.NewLocker(client, cfg.KeyPrefix, cfg.LockLease)
package redis
