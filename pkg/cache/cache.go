// Package cache provides byte-oriented caches for backend responses and
// converted diagrams.
//
// Four implementations share the [Cache] interface:
//
//   - [FileCache]: one file per entry under the user cache dir (CLI default)
//   - [MemoryCache]: bounded in-process LRU (HTTP service)
//   - [RedisCache]: shared cache for several service replicas
//   - [NullCache]: caching disabled
//
// Keys are derived with a [Keyer] so that every component agrees on the
// layout and scoped keyers can isolate tenants.
package cache

import (
	"context"
	"time"
)

// Default TTLs by entry kind.
const (
	ProjectTTL = 10 * time.Minute
	DiagramTTL = 24 * time.Hour
)

// Cache stores opaque byte values with an optional TTL.
// A TTL of 0 means the entry does not expire.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Fetch returns the cached value for key, or calls fetch and stores its
// result for ttl. With refresh set the cache is bypassed for reading but
// still updated. Cache read and write failures are not fatal: the caller
// still gets the fetched data.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if c == nil {
		return fetch()
	}
	if !refresh {
		if data, ok, err := c.Get(ctx, key); err == nil && ok {
			return data, nil
		}
	}
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, nil
}
