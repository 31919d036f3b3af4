package store

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a concurrency-safe keyed store with per-entry TTL. Expiry checks
// beyond the TTL backstop stay in the calling component; the store only
// guarantees that entries vanish some time after their TTL passes.
type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	// Keys returns the live keys matching the prefix. A production port backed
	// by real storage implements this as a prefix scan.
	Keys(prefix string) []string
}

// Memory implements Store on top of patrickmn/go-cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-memory store. defaultTTL applies to entries stored
// with ttl <= 0.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Get(key string) (interface{}, bool) {
	return m.c.Get(key)
}

func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.c.Delete(key)
}

func (m *Memory) Keys(prefix string) []string {
	items := m.c.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}
