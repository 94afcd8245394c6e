// Package cache provides persistent storage for composed documents.
//
// The in-memory single-flight cache in package compose is authoritative for
// one run. A [Cache] from this package backs it across runs so that
// resolutions rendered one after another reuse the same optimized documents.
//
// # Backends
//
//   - [FileCache]: zstd-compressed CBOR entries under a local directory
//   - [RedisCache]: a shared Redis instance, for machines rendering several
//     resolutions of the same pack in parallel
//   - [NullCache]: stores nothing
//
// # Keys
//
// Keys are plain strings. Use [DocumentKey] to build the key of a composed
// document and [NewScoped] to isolate keys produced under different optimizer
// configurations.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// DocumentKey returns the cache key of a composed document.
func DocumentKey(fingerprint string) string {
	return "doc:" + fingerprint
}
