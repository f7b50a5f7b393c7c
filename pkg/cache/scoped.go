package cache

// ScopedKeyer wraps a Keyer with a prefix so separate namespaces never
// collide in one cache directory. The CLI scopes keys by release so an
// upgrade with a different diagram style does not serve stale renders.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
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

// DiagramKey generates a prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(dotHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(dotHash, opts)
}
