package cache

// ScopedKeyer wraps a Keyer with a prefix so callers can isolate cache
// namespaces. The server uses one per live simulation, which keeps
// artifact keys from colliding across simulations that happen to share
// snapshot content.
//
// Example usage:
//
//	// Per-simulation keys on the server
//	simKeyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "sim:"+id+":")
//
//	// Global keys for the CLI
//	keyer := cache.NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RunKey generates a prefixed key for a simulation report.
func (k *ScopedKeyer) RunKey(scenarioHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.RunKey(scenarioHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}
