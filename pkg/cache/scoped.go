package cache

// ScopedKeyer prefixes every key of an inner Keyer. The backend client
// scopes its keys by base URL so switching backends never serves another
// deployment's projects from a shared cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) ProjectKey(projectID string) string {
	return k.prefix + k.inner.ProjectKey(projectID)
}

func (k *ScopedKeyer) DiagramKey(payload []byte, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(payload, opts)
}
