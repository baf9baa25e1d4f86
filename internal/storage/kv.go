// Package storage holds the persistent key-value backends that stand in for
// a browser's origin-scoped storage.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("storage: key not found")

// KV is a string key-value store. A zero ttl means the value does not expire.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Take returns the value and removes it in one step.
	Take(ctx context.Context, key string) (string, error)
}

// Scoped prefixes every key with a browser identifier so each browser sees
// its own keyspace.
type Scoped struct {
	kv     KV
	prefix string
}

// Scope returns the keyspace of one browser.
func Scope(kv KV, browserID string) *Scoped {
	return &Scoped{kv: kv, prefix: "browser:" + browserID + ":"}
}

func (s *Scoped) key(k string) string {
	return s.prefix + k
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.kv.Set(ctx, s.key(key), value, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.key(key))
}

func (s *Scoped) Take(ctx context.Context, key string) (string, error) {
	return s.kv.Take(ctx, s.key(key))
}
