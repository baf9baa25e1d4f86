package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryKV implements KV with ttlcache. Used when no Redis is configured.
type MemoryKV struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryKV starts a store whose expired entries are swept in the
// background until Close is called.
func NewMemoryKV() *MemoryKV {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	go cache.Start()

	return &MemoryKV{cache: cache}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	item := m.cache.Get(key)
	if item == nil || item.IsExpired() {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("storage: negative ttl for %s", key)
	}
	if ttl == 0 {
		ttl = ttlcache.NoTTL
	}
	m.cache.Set(key, value, ttl)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *MemoryKV) Take(_ context.Context, key string) (string, error) {
	item, ok := m.cache.GetAndDelete(key)
	if !ok || item == nil || item.IsExpired() {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

// Close stops the cleanup goroutine.
func (m *MemoryKV) Close() error {
	m.cache.Stop()
	return nil
}
