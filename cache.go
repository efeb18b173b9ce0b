package membercache

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/canonical/membercache/metadata"
)

// Cache is the per-process association table from type identities to
// their RuntimeType caches. Nothing is populated eagerly: a type's cache
// springs into existence on the first reflective query against it, and an
// invalidated association is lazily rebuilt from scratch on next access.
//
// The mutex must be locked when accessing the types map. A Cache is safe
// for concurrent use.
type Cache struct {
	reader    metadata.Reader
	synthetic func(metadata.TypeID) []metadata.TypeID

	mutex sync.RWMutex
	types map[metadata.TypeID]*RuntimeType
}

// Option configures a Cache.
type Option func(*Cache)

// WithSyntheticInterfaces installs a policy that injects additional
// interfaces into a type's interface list beyond what metadata declares,
// such as the element-typed collection interfaces of array types. The
// engine itself stays agnostic of why they exist.
func WithSyntheticInterfaces(fn func(metadata.TypeID) []metadata.TypeID) Option {
	return func(c *Cache) { c.synthetic = fn }
}

// NewCache returns a Cache over the given metadata reader.
func NewCache(reader metadata.Reader, opts ...Option) *Cache {
	c := &Cache{
		reader: reader,
		types:  map[metadata.TypeID]*RuntimeType{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reader returns the metadata reader the cache consumes.
func (c *Cache) Reader() metadata.Reader { return c.reader }

// Type returns the RuntimeType for a type identity, creating and
// publishing it on first access. Exactly one instance per identity is
// ever handed out, so RuntimeType values compare by pointer.
func (c *Cache) Type(id metadata.TypeID) *RuntimeType {
	c.mutex.RLock()
	rt, ok := c.types[id]
	c.mutex.RUnlock()
	if ok {
		return rt
	}

	rt = &RuntimeType{cache: c, id: id}
	c.mutex.Lock()
	// Check if another thread has published this type since we last
	// looked; if so our speculative instance is discarded.
	if existing, ok := c.types[id]; ok {
		rt = existing
	} else {
		c.types[id] = rt
	}
	c.mutex.Unlock()
	return rt
}

// InvalidateType clears a type's cache association entirely. The runtime
// calls this on type-unload notifications; if the type is queried again
// while still loaded, a fresh cache is built from scratch.
func (c *Cache) InvalidateType(id metadata.TypeID) {
	c.mutex.Lock()
	delete(c.types, id)
	c.mutex.Unlock()
}

// Len returns the number of types with a live cache association.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.types)
}

// ResolveMethod resolves a raw method token, seen elsewhere in the
// runtime, back to its public-facing descriptor. The descriptor is
// interned in the declaring type's cache.
func (c *Cache) ResolveMethod(tok metadata.Token) (*Method, error) {
	if k := c.reader.MemberKind(tok); k != metadata.Method {
		return nil, errors.Errorf("cannot resolve %s token %#x as a method", k, tok)
	}
	rt := c.Type(c.reader.DeclaringType(tok))
	return rt.methodCache().addByHandle(tok), nil
}

// ResolveConstructor resolves a raw constructor token to its descriptor.
func (c *Cache) ResolveConstructor(tok metadata.Token) (*Constructor, error) {
	if k := c.reader.MemberKind(tok); k != metadata.Constructor {
		return nil, errors.Errorf("cannot resolve %s token %#x as a constructor", k, tok)
	}
	rt := c.Type(c.reader.DeclaringType(tok))
	return rt.ctorCache().addByHandle(tok), nil
}

// ResolveField resolves a raw field token to its descriptor.
func (c *Cache) ResolveField(tok metadata.Token) (*Field, error) {
	if k := c.reader.MemberKind(tok); k != metadata.Field {
		return nil, errors.Errorf("cannot resolve %s token %#x as a field", k, tok)
	}
	rt := c.Type(c.reader.DeclaringType(tok))
	return rt.fieldCache().addByHandle(tok), nil
}
