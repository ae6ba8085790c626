package cache

// ScopedKeyer prefixes another Keyer's keys, giving workers that share a
// Redis instance separate namespaces.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResolutionKey(source []byte, contentHash string) string {
	return k.prefix + k.inner.ResolutionKey(source, contentHash)
}
