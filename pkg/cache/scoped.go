package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each scope its own key
// namespace. The CLI scopes keys by program version so that entries written
// by an older generator are never served after an upgrade.
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// MapKey generates a prefixed map artifact key.
func (k *ScopedKeyer) MapKey(sourceHash, mapName string, opts MapKeyOpts) string {
	return k.prefix + k.inner.MapKey(sourceHash, mapName, opts)
}

// DiagramKey generates a prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(sourceHash, mapName, format string) string {
	return k.prefix + k.inner.DiagramKey(sourceHash, mapName, format)
}
