// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package membercache

import (
	"reflect"
	"sync/atomic"

	"github.com/canonical/membercache/metadata"
)

// RuntimeType is the per-type cache façade. It owns one member cache per
// member kind, each created lazily and published at most once, plus
// memoized name strings and a slot for rare per-type derived caches.
//
// RuntimeType values are interned: the Cache hands out exactly one
// instance per type identity, so they compare by pointer.
type RuntimeType struct {
	cache *Cache
	id    metadata.TypeID

	methods atomic.Pointer[kindCache[Method, *Method]]
	ctors   atomic.Pointer[kindCache[Constructor, *Constructor]]
	fields  atomic.Pointer[kindCache[Field, *Field]]
	props   atomic.Pointer[kindCache[Property, *Property]]
	events  atomic.Pointer[kindCache[Event, *Event]]
	ifaces  atomic.Pointer[kindCache[RuntimeType, *RuntimeType]]
	nested  atomic.Pointer[kindCache[RuntimeType, *RuntimeType]]

	shortName     atomic.Pointer[string]
	fullName      atomic.Pointer[string]
	debugName     atomic.Pointer[string]
	namespace     atomic.Pointer[string]
	defaultMember atomic.Pointer[string]
	enclosing     atomic.Pointer[enclosingRef]

	aux atomic.Pointer[auxEntry]
}

// enclosingRef memoizes the enclosing-type lookup. A non-nil ref with a
// nil rt records "no enclosing type", distinct from "not yet computed".
type enclosingRef struct {
	rt *RuntimeType
}

// loadOrInstall returns the published sub-cache, constructing a candidate
// speculatively and publishing it with a single compare-and-swap when none
// exists. The losing candidate of a race is simply discarded; its
// construction has no side effects outside the new instance.
func loadOrInstall[E any, PE memberPtr[E]](
	slot *atomic.Pointer[kindCache[E, PE]],
	build func() *kindCache[E, PE],
) *kindCache[E, PE] {
	if kc := slot.Load(); kc != nil {
		return kc
	}
	kc := build()
	if slot.CompareAndSwap(nil, kc) {
		return kc
	}
	return slot.Load()
}

func (rt *RuntimeType) methodCache() *kindCache[Method, *Method] {
	return loadOrInstall(&rt.methods, func() *kindCache[Method, *Method] {
		return newKindCache[Method, *Method](rt, metadata.Method, populateMethods, resolveMethod)
	})
}

func (rt *RuntimeType) ctorCache() *kindCache[Constructor, *Constructor] {
	return loadOrInstall(&rt.ctors, func() *kindCache[Constructor, *Constructor] {
		return newKindCache[Constructor, *Constructor](rt, metadata.Constructor, populateConstructors, resolveConstructor)
	})
}

func (rt *RuntimeType) fieldCache() *kindCache[Field, *Field] {
	return loadOrInstall(&rt.fields, func() *kindCache[Field, *Field] {
		return newKindCache[Field, *Field](rt, metadata.Field, populateFields, resolveField)
	})
}

func (rt *RuntimeType) propertyCache() *kindCache[Property, *Property] {
	return loadOrInstall(&rt.props, func() *kindCache[Property, *Property] {
		return newKindCache[Property, *Property](rt, metadata.Property, populateProperties, nil)
	})
}

func (rt *RuntimeType) eventCache() *kindCache[Event, *Event] {
	return loadOrInstall(&rt.events, func() *kindCache[Event, *Event] {
		return newKindCache[Event, *Event](rt, metadata.Event, populateEvents, nil)
	})
}

func (rt *RuntimeType) interfaceCache() *kindCache[RuntimeType, *RuntimeType] {
	return loadOrInstall(&rt.ifaces, func() *kindCache[RuntimeType, *RuntimeType] {
		return newKindCache[RuntimeType, *RuntimeType](rt, metadata.Interface, populateInterfaces, nil)
	})
}

func (rt *RuntimeType) nestedCache() *kindCache[RuntimeType, *RuntimeType] {
	return loadOrInstall(&rt.nested, func() *kindCache[RuntimeType, *RuntimeType] {
		return newKindCache[RuntimeType, *RuntimeType](rt, metadata.NestedType, populateNestedTypes, nil)
	})
}

// MethodList returns the cached list of methods for the lookup policy.
func (rt *RuntimeType) MethodList(lt ListType, name string) []*Method {
	return rt.methodCache().memberList(lt, name)
}

// ConstructorList returns the cached list of constructors.
func (rt *RuntimeType) ConstructorList(lt ListType, name string) []*Constructor {
	return rt.ctorCache().memberList(lt, name)
}

// FieldList returns the cached list of fields for the lookup policy.
func (rt *RuntimeType) FieldList(lt ListType, name string) []*Field {
	return rt.fieldCache().memberList(lt, name)
}

// PropertyList returns the cached list of properties.
func (rt *RuntimeType) PropertyList(lt ListType, name string) []*Property {
	return rt.propertyCache().memberList(lt, name)
}

// EventList returns the cached list of events.
func (rt *RuntimeType) EventList(lt ListType, name string) []*Event {
	return rt.eventCache().memberList(lt, name)
}

// InterfaceList returns the cached list of implemented interfaces.
func (rt *RuntimeType) InterfaceList(lt ListType, name string) []*RuntimeType {
	return rt.interfaceCache().memberList(lt, name)
}

// NestedTypeList returns the cached list of nested types.
func (rt *RuntimeType) NestedTypeList(lt ListType, name string) []*RuntimeType {
	return rt.nestedCache().memberList(lt, name)
}

// InvalidateNestedTypes discards the nested-type cache, forcing a fresh
// hierarchy walk on next access. Called when new nested types are baked
// after the type was first loaded. Name and namespace memoization is
// deliberately untouched.
func (rt *RuntimeType) InvalidateNestedTypes() {
	rt.nested.Store(nil)
}

// ID returns the type's identity.
func (rt *RuntimeType) ID() metadata.TypeID { return rt.id }

// Cache returns the association table the type belongs to.
func (rt *RuntimeType) Cache() *Cache { return rt.cache }

// IsInterface reports whether the type is an interface.
func (rt *RuntimeType) IsInterface() bool {
	return rt.cache.reader.IsInterface(rt.id)
}

// memoString memoizes a single derived string. A type's names are
// immutable once loaded, so first publish wins and is kept forever.
func memoString(slot *atomic.Pointer[string], compute func() string) string {
	if s := slot.Load(); s != nil {
		return *s
	}
	s := compute()
	slot.CompareAndSwap(nil, &s)
	return *slot.Load()
}

// Name returns the type's short name.
func (rt *RuntimeType) Name() string {
	return memoString(&rt.shortName, func() string {
		return rt.cache.reader.TypeName(rt.id, metadata.ShortName)
	})
}

// FullName returns the type's namespace-qualified name.
func (rt *RuntimeType) FullName() string {
	return memoString(&rt.fullName, func() string {
		return rt.cache.reader.TypeName(rt.id, metadata.FullName)
	})
}

// DebugName returns the type's diagnostic rendering.
func (rt *RuntimeType) DebugName() string {
	return memoString(&rt.debugName, func() string {
		return rt.cache.reader.TypeName(rt.id, metadata.DebugName)
	})
}

// Namespace returns the namespace the type lives in.
func (rt *RuntimeType) Namespace() string {
	return memoString(&rt.namespace, func() string {
		return rt.cache.reader.Namespace(rt.id)
	})
}

// DefaultMemberName returns the name nominated as the type's default
// member, or the empty string.
func (rt *RuntimeType) DefaultMemberName() string {
	return memoString(&rt.defaultMember, func() string {
		return rt.cache.reader.DefaultMemberName(rt.id)
	})
}

// Enclosing returns the type this type is nested in, memoized with a
// dedicated "no enclosing type" sentinel so top-level types do not hit
// the reader repeatedly.
func (rt *RuntimeType) Enclosing() (*RuntimeType, bool) {
	ref := rt.enclosing.Load()
	if ref == nil {
		var enc *RuntimeType
		if id, ok := rt.cache.reader.EnclosingType(rt.id); ok {
			enc = rt.cache.Type(id)
		}
		rt.enclosing.CompareAndSwap(nil, &enclosingRef{rt: enc})
		ref = rt.enclosing.Load()
	}
	return ref.rt, ref.rt != nil
}

// Base returns the type's direct base type.
func (rt *RuntimeType) Base() (*RuntimeType, bool) {
	id, ok := rt.cache.reader.BaseType(rt.id)
	if !ok {
		return nil, false
	}
	return rt.cache.Type(id), true
}

// auxEntry is one attached derived cache; entries form an immutable
// prepend-only list published by compare-and-swap.
type auxEntry struct {
	key  reflect.Type
	val  any
	next *auxEntry
}

// AuxCache returns the auxiliary derived cache of type V attached to the
// type, constructing it with build on first use. At most one instance of
// each V is ever attached: racing builders construct speculatively and
// only the first publish wins, the loser being discarded.
func AuxCache[V any](rt *RuntimeType, build func(*RuntimeType) *V) *V {
	key := reflect.TypeOf((*V)(nil))
	for e := rt.aux.Load(); e != nil; e = e.next {
		if e.key == key {
			return e.val.(*V)
		}
	}
	val := build(rt)
	for {
		head := rt.aux.Load()
		// Re-scan under the current head: another thread may have
		// attached a V since we last looked.
		for e := head; e != nil; e = e.next {
			if e.key == key {
				return e.val.(*V)
			}
		}
		if rt.aux.CompareAndSwap(head, &auxEntry{key: key, val: val, next: head}) {
			return val
		}
	}
}

// Member implementation. A RuntimeType appears as a member when it is an
// element of another type's interface or nested-type list.

// Kind implements Member.
func (rt *RuntimeType) Kind() metadata.Kind {
	if rt.IsInterface() {
		return metadata.Interface
	}
	return metadata.NestedType
}

// Token implements Member. Type identities double as tokens within the
// interface and nested-type caches.
func (rt *RuntimeType) Token() metadata.Token {
	return metadata.Token(rt.id)
}

// DeclaringType implements Member: the enclosing type for nested types,
// zero otherwise.
func (rt *RuntimeType) DeclaringType() metadata.TypeID {
	if id, ok := rt.cache.reader.EnclosingType(rt.id); ok {
		return id
	}
	return 0
}

// BindingFlags implements Member.
func (rt *RuntimeType) BindingFlags() BindingFlags {
	return precalcFlags(rt.cache.reader.TypeAttrs(rt.id), false)
}

// Inherited implements Member. Interfaces and nested types are never
// reported as inherited members.
func (rt *RuntimeType) Inherited() bool { return false }
