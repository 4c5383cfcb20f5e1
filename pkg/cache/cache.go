// Package cache stores rendered map artifacts keyed by everything that
// determines them.
//
// Map generation is deterministic: the same definition sources, map name,
// seed and output format always produce the same bytes. The CLI therefore
// keeps a file cache of artifacts so repeated invocations are instant.
//
// # Implementations
//
//   - [FileCache]: JSON entry files under a directory, sharded by key hash
//   - [NullCache]: stores nothing (caching disabled)
//
// # Keys
//
// A [Keyer] turns generation inputs into cache keys. [ScopedKeyer] prefixes
// every key, which the CLI uses to separate entries written by different
// program versions.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered map artifacts stay valid.
const TTLArtifact = 30 * 24 * time.Hour

// TTLDiagram is how long rendered pipeline diagrams stay valid.
const TTLDiagram = 30 * 24 * time.Hour

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the data for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// MapKeyOpts are the generation inputs beyond the sources and map name.
type MapKeyOpts struct {
	Seed    uint64 `json:"seed"`
	Format  string `json:"format"`
	HeatMap string `json:"heat_map,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// MapKey keys a rendered map artifact.
	MapKey(sourceHash, mapName string, opts MapKeyOpts) string

	// DiagramKey keys a rendered pipeline diagram.
	DiagramKey(sourceHash, mapName, format string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MapKey generates a key of the form "map:<hash>".
func (DefaultKeyer) MapKey(sourceHash, mapName string, opts MapKeyOpts) string {
	return hashKey("map", sourceHash, mapName, opts)
}

// DiagramKey generates a key of the form "diagram:<hash>".
func (DefaultKeyer) DiagramKey(sourceHash, mapName, format string) string {
	return hashKey("diagram", sourceHash, mapName, format)
}
