// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package membercache

import (
	"strings"

	"github.com/canonical/membercache/metadata"
)

// This file is the caller-facing selection layer: it applies binding-flag
// constraints on top of raw cache results and resolves single-result
// queries to at most one match, raising an ambiguity condition otherwise.
// Absence of a member is an empty result or a nil descriptor, never an
// error.

// normalize applies the default lookup flags to a zero flag set.
func normalize(flags BindingFlags) BindingFlags {
	if flags == 0 {
		return DefaultLookup
	}
	return flags
}

// nameListType maps the caller's case sensitivity to a lookup policy.
func nameListType(flags BindingFlags) ListType {
	if flags&IgnoreCase != 0 {
		return ListCaseInsensitive
	}
	return ListCaseSensitive
}

// filterMembers keeps the candidates satisfying the caller's flags.
func filterMembers[E any, PE memberPtr[E]](list []PE, flags BindingFlags) []PE {
	var out []PE
	for _, m := range list {
		if matchBinding(flags, m) {
			out = append(out, m)
		}
	}
	return out
}

func asMembers[E any, PE memberPtr[E]](list []PE) []Member {
	out := make([]Member, len(list))
	for i, m := range list {
		out[i] = m
	}
	return out
}

// derivesFrom reports whether type a has b in its base chain.
func derivesFrom(c *Cache, a, b metadata.TypeID) bool {
	for id := a; ; {
		base, ok := c.reader.BaseType(id)
		if !ok {
			return false
		}
		if base == b {
			return true
		}
		id = base
	}
}

// mostDerived picks the candidate whose declaring type subclasses every
// other candidate's. Candidates with no subclass relationship between
// their declaring types are ambiguous.
func mostDerived[E any, PE memberPtr[E]](rt *RuntimeType, name string, candidates []PE) (PE, error) {
	var zero PE
	best := candidates[0]
	for _, cand := range candidates[1:] {
		switch {
		case cand.DeclaringType() == best.DeclaringType():
			return zero, ambiguousMatch(rt, name, best, cand)
		case derivesFrom(rt.cache, cand.DeclaringType(), best.DeclaringType()):
			best = cand
		case derivesFrom(rt.cache, best.DeclaringType(), cand.DeclaringType()):
			// best stands.
		default:
			return zero, ambiguousMatch(rt, name, best, cand)
		}
	}
	return best, nil
}

// selectUnique applies the single-result rules shared by fields,
// properties and events: same declaring type and binding flags is
// ambiguous, a static member on two distinct interfaces is ambiguous,
// and otherwise the subclass-most declaration wins.
func selectUnique[E any, PE memberPtr[E]](rt *RuntimeType, name string, candidates []PE) (PE, error) {
	var zero PE
	if len(candidates) == 0 {
		return zero, nil
	}
	r := rt.cache.reader
	match := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.DeclaringType() == match.DeclaringType() &&
			cand.BindingFlags() == match.BindingFlags() {
			return zero, ambiguousMatch(rt, name, match, cand)
		}
		if r.IsInterface(cand.DeclaringType()) && r.IsInterface(match.DeclaringType()) &&
			cand.BindingFlags()&Static != 0 && match.BindingFlags()&Static != 0 {
			// A static member on two interfaces has no override
			// relationship to arbitrate on.
			return zero, ambiguousMatch(rt, name, match, cand)
		}
		if derivesFrom(rt.cache, cand.DeclaringType(), match.DeclaringType()) {
			match = cand
		}
	}
	return match, nil
}

// GetMethods returns every method reachable from the type that satisfies
// the flags.
func (rt *RuntimeType) GetMethods(flags BindingFlags) []*Method {
	return filterMembers(rt.MethodList(ListAll, ""), normalize(flags))
}

// GetMethod returns the method with the given name, or nil when there is
// none. When several candidates share the name with identical signatures,
// the most derived declaration is returned; candidates with differing
// signatures cannot be discriminated by a name-only query and produce an
// AmbiguousMatchError.
func (rt *RuntimeType) GetMethod(name string, flags BindingFlags) (*Method, error) {
	flags = normalize(flags)
	candidates := filterMembers(rt.MethodList(nameListType(flags), name), flags)
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	first := candidates[0]
	for _, m := range candidates[1:] {
		if !m.Signature().Equal(first.Signature()) {
			return nil, ambiguousMatch(rt, name, asMembers(candidates)...)
		}
	}
	return mostDerived(rt, name, candidates)
}

// GetMethodWithSignature returns the method with the given name and
// signature, or nil when there is none.
func (rt *RuntimeType) GetMethodWithSignature(name string, sig metadata.Signature, flags BindingFlags) (*Method, error) {
	flags = normalize(flags)
	var candidates []*Method
	for _, m := range rt.MethodList(nameListType(flags), name) {
		if matchBinding(flags, m) && m.Signature().Equal(sig) {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	return mostDerived(rt, name, candidates)
}

// GetConstructors returns the type's constructors satisfying the flags.
func (rt *RuntimeType) GetConstructors(flags BindingFlags) []*Constructor {
	return filterMembers(rt.ConstructorList(ListAll, ""), normalize(flags))
}

// GetConstructor returns the constructor with the given signature, or
// nil when there is none.
func (rt *RuntimeType) GetConstructor(flags BindingFlags, sig metadata.Signature) (*Constructor, error) {
	flags = normalize(flags)
	var candidates []*Constructor
	for _, c := range rt.ConstructorList(ListAll, "") {
		if matchBinding(flags, c) && c.Signature().Equal(sig) {
			candidates = append(candidates, c)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	return nil, ambiguousMatch(rt, sig.String(), asMembers(candidates)...)
}

// GetFields returns every field reachable from the type that satisfies
// the flags.
func (rt *RuntimeType) GetFields(flags BindingFlags) []*Field {
	return filterMembers(rt.FieldList(ListAll, ""), normalize(flags))
}

// GetField returns the field with the given name, or nil when there is
// none. A name satisfied by static fields of several implemented
// interfaces, or by two fields of the same declaring type, is an
// AmbiguousMatchError.
func (rt *RuntimeType) GetField(name string, flags BindingFlags) (*Field, error) {
	flags = normalize(flags)
	candidates := filterMembers(rt.FieldList(nameListType(flags), name), flags)
	return selectUnique(rt, name, candidates)
}

// GetProperties returns every property reachable from the type that
// satisfies the flags.
func (rt *RuntimeType) GetProperties(flags BindingFlags) []*Property {
	return filterMembers(rt.PropertyList(ListAll, ""), normalize(flags))
}

// GetProperty returns the property with the given name, under the same
// ambiguity rules as GetField.
func (rt *RuntimeType) GetProperty(name string, flags BindingFlags) (*Property, error) {
	flags = normalize(flags)
	candidates := filterMembers(rt.PropertyList(nameListType(flags), name), flags)
	return selectUnique(rt, name, candidates)
}

// GetEvents returns every event reachable from the type that satisfies
// the flags.
func (rt *RuntimeType) GetEvents(flags BindingFlags) []*Event {
	return filterMembers(rt.EventList(ListAll, ""), normalize(flags))
}

// GetEvent returns the event with the given name, under the same
// ambiguity rules as GetField.
func (rt *RuntimeType) GetEvent(name string, flags BindingFlags) (*Event, error) {
	flags = normalize(flags)
	candidates := filterMembers(rt.EventList(nameListType(flags), name), flags)
	return selectUnique(rt, name, candidates)
}

// GetInterfaces returns every interface the type implements.
func (rt *RuntimeType) GetInterfaces() []*RuntimeType {
	return rt.InterfaceList(ListAll, "")
}

// GetInterface returns the implemented interface with the given name, or
// nil when there is none.
func (rt *RuntimeType) GetInterface(name string, flags BindingFlags) (*RuntimeType, error) {
	list := rt.InterfaceList(nameListType(normalize(flags)), name)
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	}
	return nil, ambiguousMatch(rt, name, asMembers(list)...)
}

// GetNestedTypes returns the type's nested types satisfying the flags.
func (rt *RuntimeType) GetNestedTypes(flags BindingFlags) []*RuntimeType {
	return filterMembers(rt.NestedTypeList(ListAll, ""), normalize(flags))
}

// GetNestedType returns the nested type with the given name, or nil when
// there is none.
func (rt *RuntimeType) GetNestedType(name string, flags BindingFlags) (*RuntimeType, error) {
	flags = normalize(flags)
	candidates := filterMembers(rt.NestedTypeList(nameListType(flags), name), flags)
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	return nil, ambiguousMatch(rt, name, asMembers(candidates)...)
}

// GetMembers returns every member of every kind (except implemented
// interfaces) reachable from the type under the flags.
func (rt *RuntimeType) GetMembers(flags BindingFlags) []Member {
	flags = normalize(flags)
	var out []Member
	out = append(out, asMembers(rt.GetMethods(flags))...)
	out = append(out, asMembers(rt.GetConstructors(flags))...)
	out = append(out, asMembers(rt.GetProperties(flags))...)
	out = append(out, asMembers(rt.GetEvents(flags))...)
	out = append(out, asMembers(rt.GetFields(flags))...)
	out = append(out, asMembers(rt.GetNestedTypes(flags))...)
	return out
}

// GetMember returns the members of any kind matching the name. A name
// ending in '*' is a prefix query: it is answered from the full
// enumeration and filtered client-side, which is strictly more expensive
// than exact-name lookup and only offered on this plural accessor.
func (rt *RuntimeType) GetMember(name string, flags BindingFlags) []Member {
	flags = normalize(flags)
	if strings.HasSuffix(name, "*") {
		return rt.prefixMembers(strings.TrimSuffix(name, "*"), flags)
	}
	lt := nameListType(flags)
	var out []Member
	out = append(out, asMembers(filterMembers(rt.MethodList(lt, name), flags))...)
	out = append(out, asMembers(filterMembers(rt.ConstructorList(lt, name), flags))...)
	out = append(out, asMembers(filterMembers(rt.PropertyList(lt, name), flags))...)
	out = append(out, asMembers(filterMembers(rt.EventList(lt, name), flags))...)
	out = append(out, asMembers(filterMembers(rt.FieldList(lt, name), flags))...)
	out = append(out, asMembers(filterMembers(rt.NestedTypeList(lt, name), flags))...)
	return out
}

// GetDefaultMembers returns the members matching the type's nominated
// default member name.
func (rt *RuntimeType) GetDefaultMembers(flags BindingFlags) []Member {
	name := rt.DefaultMemberName()
	if name == "" {
		return nil
	}
	return rt.GetMember(name, flags)
}

// prefixMatch reports whether name starts with prefix under the
// requested case sensitivity.
func prefixMatch(name, prefix string, ignoreCase bool) bool {
	if len(name) < len(prefix) {
		return false
	}
	if ignoreCase {
		return strings.EqualFold(name[:len(prefix)], prefix)
	}
	return strings.HasPrefix(name, prefix)
}

func (rt *RuntimeType) prefixMembers(prefix string, flags BindingFlags) []Member {
	ignoreCase := flags&IgnoreCase != 0
	keep := func(m Member) bool {
		return matchBinding(flags, m) && prefixMatch(m.Name(), prefix, ignoreCase)
	}
	var out []Member
	for _, m := range rt.MethodList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	for _, m := range rt.ConstructorList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	for _, m := range rt.PropertyList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	for _, m := range rt.EventList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	for _, m := range rt.FieldList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	for _, m := range rt.NestedTypeList(ListAll, "") {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
