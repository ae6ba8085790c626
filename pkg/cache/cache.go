// Package cache stores resolver worker responses.
//
// A [Cache] is a byte-oriented key/value store with optional expiry. The
// worker keys entries with a [Keyer] so that identical resolution requests
// against unchanged manifests are answered without rerunning package
// manager tooling.
//
// Backends:
//
//   - [FileCache]: one JSON file per entry, for local CLI use
//   - [MemoryCache]: bounded LRU in process memory
//   - [RedisCache]: shared between worker replicas
//   - [NullCache]: stores nothing
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for serialized resolver responses.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ResolutionKey keys a resolution request. source is the request's
	// serialized dependency source and contentHash the hash of the files it
	// references, so edits to a manifest invalidate the entry.
	ResolutionKey(source []byte, contentHash string) string
}

// DefaultKeyer is the unprefixed Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResolutionKey returns "resolve:<sha256>".
func (DefaultKeyer) ResolutionKey(source []byte, contentHash string) string {
	return hashKey("resolve", string(source), contentHash)
}
