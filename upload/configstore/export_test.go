package configstore

import (
	"context"
	"time"

	"github.com/dmitrymomot/uploadgate/integration/database/pg"
	"github.com/dmitrymomot/uploadgate/upload"
)

func NewPostgresWithQuerier(q pg.Querier, now func() time.Time) *Postgres {
	return &Postgres{conn: func(context.Context) pg.Querier { return q }, now: now}
}

func SetMemoryClock(m *Memory, now func() time.Time) { m.now = now }

func NewCachedWithClock(source upload.ConfigSource, size int, ttl time.Duration, now func() time.Time) upload.ConfigSource {
	c := NewCached(source, size, ttl)
	if cc, ok := c.(*Cached); ok {
		cc.now = now
	}
	return c
}
