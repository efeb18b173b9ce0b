package membercache

import (
	"github.com/canonical/membercache/metadata"
)

// The populate functions perform the speculative hierarchy walks that
// feed the per-kind caches. They run without any lock and may execute
// redundantly on several threads for the same query; the merge in
// kindCache.insert reconciles the results.

// hierarchy returns the reflected type followed by its base chain,
// most-derived first. Interfaces have no base chain for member purposes,
// so only the interface itself is examined.
func hierarchy(rt *RuntimeType) []*RuntimeType {
	r := rt.cache.reader
	chain := []*RuntimeType{rt}
	if r.IsInterface(rt.id) {
		return chain
	}
	for id := rt.id; ; {
		base, ok := r.BaseType(id)
		if !ok {
			break
		}
		chain = append(chain, rt.cache.Type(base))
		id = base
	}
	return chain
}

// interfaceClosure returns every interface reachable from the type: the
// declared interfaces of each level of the base chain, the interfaces
// those transitively extend, and any synthetic interfaces the cache's
// policy injects. The reflected type itself is never included. The order
// is stable: base-chain order, then declaration order, breadth-first
// through extensions.
func interfaceClosure(rt *RuntimeType) []*RuntimeType {
	r := rt.cache.reader
	seen := map[metadata.TypeID]bool{rt.id: true}
	var queue []metadata.TypeID
	for _, level := range hierarchy(rt) {
		queue = append(queue, r.Interfaces(level.id)...)
	}
	if rt.cache.synthetic != nil {
		queue = append(queue, rt.cache.synthetic(rt.id)...)
	}
	var out []*RuntimeType
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, rt.cache.Type(id))
		queue = append(queue, r.Interfaces(id)...)
	}
	return out
}

// nameSig identifies a virtual member by name and signature hash for the
// duplicate check that runs alongside slot-based exclusion.
type nameSig struct {
	name string
	hash uint64
}

func populateMethods(rt *RuntimeType, f filter) []*Method {
	r := rt.cache.reader
	var list []*Method
	// overridden marks vtable slots already claimed by a more derived
	// level; base candidates at a claimed slot are dropped without ever
	// being added.
	overridden := make([]bool, r.VirtualSlotCount(rt.id))
	seen := map[nameSig]bool{}
	for _, level := range hierarchy(rt) {
		inherited := level != rt
		for _, tok := range r.Enumerate(level.id, metadata.Method) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			attrs := r.MemberAttrs(tok)
			slot := r.VirtualSlot(tok)
			if inherited && attrs&metadata.Private != 0 && slot == metadata.NoSlot {
				// Private non-virtual members are not inherited.
				continue
			}
			if slot != metadata.NoSlot {
				// A virtual candidate is dropped if its slot is claimed
				// or if a more derived level already contributed the
				// same name and signature. Both checks apply
				// independently.
				if slot < len(overridden) && overridden[slot] {
					continue
				}
				key := nameSig{name: r.MemberName(tok), hash: r.MemberSignature(tok).Hash()}
				if seen[key] {
					continue
				}
				seen[key] = true
				if slot < len(overridden) {
					overridden[slot] = true
				}
			}
			list = append(list, newMethod(rt, tok, inherited))
		}
	}
	return list
}

func populateConstructors(rt *RuntimeType, f filter) []*Constructor {
	r := rt.cache.reader
	var list []*Constructor
	// Constructors are never inherited; only the reflected type is
	// examined.
	for _, tok := range r.Enumerate(rt.id, metadata.Constructor) {
		if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
			continue
		}
		list = append(list, newConstructor(rt, tok, false))
	}
	return list
}

func populateFields(rt *RuntimeType, f filter) []*Field {
	r := rt.cache.reader
	var list []*Field
	for _, level := range hierarchy(rt) {
		inherited := level != rt
		for _, tok := range r.Enumerate(level.id, metadata.Field) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			if inherited && r.MemberAttrs(tok)&metadata.Private != 0 {
				continue
			}
			list = append(list, newField(rt, tok, inherited))
		}
	}
	// Static and literal fields declared on implemented interfaces are
	// also reachable. Candidates from several interfaces may share a
	// name; all of them are aggregated here and the single-result
	// accessors report the ambiguity.
	for _, iface := range interfaceClosure(rt) {
		for _, tok := range r.Enumerate(iface.id, metadata.Field) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			if r.MemberAttrs(tok)&(metadata.Static|metadata.Literal) == 0 {
				continue
			}
			list = append(list, newField(rt, tok, true))
		}
	}
	return list
}

func populateProperties(rt *RuntimeType, f filter) []*Property {
	r := rt.cache.reader
	var list []*Property
	overridden := make([]bool, r.VirtualSlotCount(rt.id))
	seen := map[nameSig]bool{}
	for _, level := range hierarchy(rt) {
		inherited := level != rt
		for _, tok := range r.Enumerate(level.id, metadata.Property) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			attrs := r.MemberAttrs(tok)
			slot := r.VirtualSlot(tok)
			if inherited && attrs&metadata.Private != 0 && slot == metadata.NoSlot {
				continue
			}
			if slot != metadata.NoSlot {
				// Same double exclusion as methods: accessor slot and
				// name+signature both have to be unclaimed.
				if slot < len(overridden) && overridden[slot] {
					continue
				}
				key := nameSig{name: r.MemberName(tok), hash: r.MemberSignature(tok).Hash()}
				if seen[key] {
					continue
				}
				seen[key] = true
				if slot < len(overridden) {
					overridden[slot] = true
				}
			}
			list = append(list, newProperty(rt, tok, inherited))
		}
	}
	// Static properties on implemented interfaces, mirroring fields.
	for _, iface := range interfaceClosure(rt) {
		for _, tok := range r.Enumerate(iface.id, metadata.Property) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			if r.MemberAttrs(tok)&metadata.Static == 0 {
				continue
			}
			list = append(list, newProperty(rt, tok, true))
		}
	}
	return list
}

func populateEvents(rt *RuntimeType, f filter) []*Event {
	r := rt.cache.reader
	var list []*Event
	// Events are never virtual; a derived event hides a base event of
	// the same name outright.
	seenName := map[string]bool{}
	for _, level := range hierarchy(rt) {
		inherited := level != rt
		for _, tok := range r.Enumerate(level.id, metadata.Event) {
			if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
				continue
			}
			if inherited && r.MemberAttrs(tok)&metadata.Private != 0 {
				continue
			}
			name := r.MemberName(tok)
			if seenName[name] {
				continue
			}
			seenName[name] = true
			list = append(list, newEvent(rt, tok, inherited))
		}
	}
	return list
}

func populateInterfaces(rt *RuntimeType, f filter) []*RuntimeType {
	var list []*RuntimeType
	for _, iface := range interfaceClosure(rt) {
		if f.RequiresStringComparison() && !f.Match(iface.Name()) {
			continue
		}
		list = append(list, iface)
	}
	return list
}

func populateNestedTypes(rt *RuntimeType, f filter) []*RuntimeType {
	r := rt.cache.reader
	var list []*RuntimeType
	for _, tok := range r.Enumerate(rt.id, metadata.NestedType) {
		if f.RequiresStringComparison() && !f.Match(r.MemberName(tok)) {
			continue
		}
		id, err := r.ResolveType(tok)
		if err != nil {
			// The nested type is not loadable yet (for example an
			// incompletely baked dynamic type); omit it rather than
			// aborting the enumeration.
			continue
		}
		list = append(list, rt.cache.Type(id))
	}
	return list
}

// The resolve functions back the handle-to-descriptor paths.

func resolveMethod(rt *RuntimeType, tok metadata.Token) *Method {
	return newMethod(rt, tok, rt.cache.reader.DeclaringType(tok) != rt.id)
}

func resolveConstructor(rt *RuntimeType, tok metadata.Token) *Constructor {
	return newConstructor(rt, tok, rt.cache.reader.DeclaringType(tok) != rt.id)
}

func resolveField(rt *RuntimeType, tok metadata.Token) *Field {
	return newField(rt, tok, rt.cache.reader.DeclaringType(tok) != rt.id)
}
