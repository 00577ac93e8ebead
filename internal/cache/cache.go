// Package cache provides a typed in-memory TTL cache on top of
// patrickmn/go-cache. The plugin uses it to memoize query results.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL cache of values of type V.
type Cache[V any] struct {
	store *gocache.Cache
}

// New creates a cache. defaultTTL applies to Set; expired entries are
// purged every cleanupInterval.
func New[V any](defaultTTL, cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// Stats holds cache statistics.
type Stats struct {
	ItemCount int `json:"item_count"`
}

// GetStats returns current statistics. The item count includes expired
// entries not yet purged.
func (c *Cache[V]) GetStats() Stats {
	return Stats{ItemCount: c.store.ItemCount()}
}

// Key builds a bounded cache key from parts. Every part is length-prefixed
// before hashing, so different part lists never share a key even when a
// part contains a separator.
func Key(parts ...string) string {
	h := sha256.New()
	var size [binary.MaxVarintLen64]byte
	for _, p := range parts {
		h.Write(size[:binary.PutUvarint(size[:], uint64(len(p)))])
		io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
