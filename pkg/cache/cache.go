// Package cache provides caching for simulation reports and rendered
// diagram artifacts.
//
// Three implementations are available:
//   - FileCache: persistent file-based cache for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: no-op cache for tests and disabled caching
//
// Keys are generated by a Keyer so every consumer derives them the same
// way: reports are keyed by scenario content plus the configuration
// they ran under, artifacts by snapshot content plus render options.
package cache

import (
	"context"
	"time"
)

// Cache stores byte blobs under string keys with per-entry TTLs.
//
// Implementations must treat a missing key as (nil, false, nil), not an
// error; errors are reserved for storage failures.
type Cache interface {
	// Get retrieves the value for key. The second return reports whether
	// the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// TTLs per cached artifact class.
const (
	// TTLReport bounds how long a completed simulation report is reused
	// for an unchanged scenario and configuration.
	TTLReport = 24 * time.Hour

	// TTLArtifact bounds rendered diagram reuse. An artifact is a pure
	// function of its snapshot hash and render options, so it can live
	// long.
	TTLArtifact = 7 * 24 * time.Hour
)

// RunKeyOpts distinguishes simulation runs of the same scenario.
type RunKeyOpts struct {
	DetectionStrategy string
	DetectionInterval float64
	RecoveryStrategy  string
	Steps             int
}

// ArtifactKeyOpts distinguishes rendered artifacts of the same snapshot.
type ArtifactKeyOpts struct {
	Kind   string // wfg or states
	Format string // svg, png, dot, txt
	Width  int
	Height int
	Theme  string
}

// Keyer generates cache keys for the cacheable pipeline stages.
// Implementations must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// RunKey identifies a simulation report by scenario content hash and
	// the configuration it ran under.
	RunKey(scenarioHash string, opts RunKeyOpts) string

	// ArtifactKey identifies a rendered diagram by snapshot content hash
	// and render options.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// RunKey generates a key for a simulation report.
func (k *DefaultKeyer) RunKey(scenarioHash string, opts RunKeyOpts) string {
	return hashKey("run", scenarioHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", snapshotHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
