// Package cache stores rendered pipeline diagrams between CLI runs.
//
// # Backends
//
//   - [FileCache]: JSON entries with expiry under a directory (the CLI uses
//     $XDG_CACHE_HOME/imgblocks)
//   - [NullCache]: never stores anything, used for --no-cache
//
// Wrap either with [WithHooks] to report hits, misses and writes through
// [observability.Cache].
//
// # Keys
//
// A [Keyer] derives keys from a hash of the DOT source plus the output
// options, so the same diagram in the same format is rendered once:
//
//	key := cache.NewDefaultKeyer().DiagramKey(cache.Hash([]byte(dot)), cache.DiagramKeyOpts{Format: "svg"})
//
// [observability.Cache]: github.com/matzehuels/imgblocks/pkg/observability
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired or unreadable entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLDiagram is how long rendered diagrams are kept.
const TTLDiagram = 7 * 24 * time.Hour

// DiagramKeyOpts are the render options that change the output bytes.
type DiagramKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// DiagramKey returns the key for a diagram rendered from the DOT source
	// with the given hash.
	DiagramKey(dotHash string, opts DiagramKeyOpts) string
}

// DefaultKeyer produces "diagram:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DiagramKey hashes the DOT hash together with the options.
func (DefaultKeyer) DiagramKey(dotHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", dotHash, opts)
}
