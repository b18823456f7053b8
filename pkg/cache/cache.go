// Package cache provides pluggable caching for registry metadata.
//
// Three backends are available:
//   - file: directory-based cache for normal CLI usage
//   - redis: shared cache for CI fleets and multi-machine setups
//   - null: no-op cache for testing or --refresh style bypasses
//
// Values are opaque byte slices; callers handle their own serialization.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss or
	// expired entry; an error is returned only for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Hash returns the hex-encoded SHA-256 of data. Backends use it to derive
// filesystem- and key-safe names from arbitrary cache keys.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
