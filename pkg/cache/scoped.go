package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache and prefixes every key. Documents produced under
// different optimizer configurations live in different scopes so a
// configuration change never serves stale output.
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped returns a Cache whose keys are namespaced by the hash of scope.
// A nil inner cache is replaced by a [NullCache].
func NewScoped(inner Cache, scope ...string) *Scoped {
	if inner == nil {
		inner = NewNullCache()
	}
	return &Scoped{inner: inner, prefix: hashKey("scope", scope...) + ":"}
}

// Prefix returns the namespace prepended to every key.
func (s *Scoped) Prefix() string { return s.prefix }

// Get retrieves a value from the scoped namespace.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores a value in the scoped namespace.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes a value from the scoped namespace.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the wrapped cache.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

var _ Cache = (*Scoped)(nil)
