package configstore

import (
	"context"
	"time"

	"github.com/dmitrymomot/uploadgate/core/cache"
	"github.com/dmitrymomot/uploadgate/upload"
)

// Cached keeps recently resolved records in an LRU for ttl. Misses and
// errors are not cached.
type Cached struct {
	source upload.ConfigSource
	lru    *cache.LRUCache[int64, cachedRecord]
	ttl    time.Duration
	now    func() time.Time
}

type cachedRecord struct {
	rec      upload.ConfigRecord
	storedAt time.Time
}

var _ upload.ConfigSource = (*Cached)(nil)

// NewCached wraps source. A non-positive ttl or size disables caching.
func NewCached(source upload.ConfigSource, size int, ttl time.Duration) upload.ConfigSource {
	if size <= 0 || ttl <= 0 {
		return source
	}
	return &Cached{
		source: source,
		lru:    cache.NewLRUCache[int64, cachedRecord](size),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Cached) Get(ctx context.Context, uid int64) (upload.ConfigRecord, error) {
	now := c.now()
	if hit, ok := c.lru.Get(uid); ok {
		if now.Sub(hit.storedAt) < c.ttl && hit.rec.Active(now) {
			return hit.rec, nil
		}
		c.lru.Remove(uid)
	}

	rec, err := c.source.Get(ctx, uid)
	if err != nil {
		return upload.ConfigRecord{}, err
	}
	c.lru.Put(uid, cachedRecord{rec: rec, storedAt: now})
	return rec, nil
}
