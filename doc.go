/*
Package membercache caches the reflective members of runtime types.

Enumerating the methods, constructors, fields, properties, events, interfaces
and nested types of a type straight from metadata is expensive: every query
walks the inheritance chain, resolves names, and applies override exclusion.
This package does that walk once per type and member kind, then answers all
subsequent queries from interned, immutable lists.

# Basics

A Cache is created over a metadata.Reader, the abstraction through which type
and member information is obtained:

	cache := membercache.NewCache(reader)
	rt := cache.Type(id)

The RuntimeType returned by Type is interned: exactly one instance exists per
type identity, so RuntimeType values (and the member descriptors they hand
out) compare by pointer. Members are queried through the Get accessors:

	m, err := rt.GetMethod("Render", membercache.DefaultLookup)
	fields := rt.GetFields(membercache.Public | membercache.Static)

Single-result accessors return a nil descriptor when nothing matches, and an
AmbiguousMatchError when the name alone cannot discriminate between
structurally distinct members.

# Lookup policies

Each member kind is cached under three progressively wider policies:
case-sensitive name lookup, case-insensitive name lookup, and the complete
enumeration. A broader policy always subsumes a narrower one, and once the
complete enumeration has been built, name queries are answered by filtering
it without touching metadata again.

Lists are populated lazily and never mutated after publication. Concurrent
first queries may each walk the hierarchy; the merge keeps exactly one
descriptor per underlying member, so redundant walks cost time but never
break identity.
*/
package membercache
