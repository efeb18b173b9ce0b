package metadata

import (
	"sync"

	"github.com/pkg/errors"
)

// typeDef is the model's record of a single type.
type typeDef struct {
	name          string
	namespace     string
	attrs         Attr
	isIface       bool
	base          TypeID
	interfaces    []TypeID
	enclosing     TypeID
	defaultMember string

	// vslots is the type's total vtable slot count, inherited slots
	// included. Assigned once when the model is built.
	vslots int

	members map[Kind][]Token
}

// memberDef is the model's record of a single member token.
type memberDef struct {
	kind      Kind
	name      string
	attrs     Attr
	declaring TypeID
	sig       Signature
	slot      int

	// resolves is the type a nested-type token loads as. Zero means the
	// type has not been baked yet and ResolveType fails.
	resolves TypeID
}

// Model is an in-memory Reader. It plays the role of the loaded module's
// metadata tables: types and member tokens with stable identities.
//
// A Model is safe for concurrent use. The mutating methods (AddNested,
// Bake) model the runtime baking dynamically generated types after initial
// load; existing tokens and type identities are never changed by them.
type Model struct {
	mu      sync.RWMutex
	types   []*typeDef
	members []*memberDef
	byName  map[string]TypeID
}

func (m *Model) typeAt(t TypeID) *typeDef {
	if t == 0 || int(t) > len(m.types) {
		return nil
	}
	return m.types[t-1]
}

func (m *Model) memberAt(tok Token) *memberDef {
	if tok == 0 || int(tok) > len(m.members) {
		return nil
	}
	return m.members[tok-1]
}

// Enumerate implements Reader. Unknown types yield nil.
func (m *Model) Enumerate(t TypeID, k Kind) []Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return nil
	}
	toks := td.members[k]
	if len(toks) == 0 {
		return nil
	}
	out := make([]Token, len(toks))
	copy(out, toks)
	return out
}

// MemberKind implements Reader.
func (m *Model) MemberKind(tok Token) Kind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).kind
}

// MemberName implements Reader.
func (m *Model) MemberName(tok Token) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).name
}

// MemberAttrs implements Reader.
func (m *Model) MemberAttrs(tok Token) Attr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).attrs
}

// MemberSignature implements Reader.
func (m *Model) MemberSignature(tok Token) Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).sig
}

// DeclaringType implements Reader.
func (m *Model) DeclaringType(tok Token) TypeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).declaring
}

// VirtualSlot implements Reader.
func (m *Model) VirtualSlot(tok Token) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memberAt(tok).slot
}

// VirtualSlotCount implements Reader.
func (m *Model) VirtualSlotCount(t TypeID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return 0
	}
	return td.vslots
}

// BaseType implements Reader.
func (m *Model) BaseType(t TypeID) (TypeID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil || td.base == 0 {
		return 0, false
	}
	return td.base, true
}

// Interfaces implements Reader.
func (m *Model) Interfaces(t TypeID) []TypeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil || len(td.interfaces) == 0 {
		return nil
	}
	out := make([]TypeID, len(td.interfaces))
	copy(out, td.interfaces)
	return out
}

// IsInterface implements Reader.
func (m *Model) IsInterface(t TypeID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	return td != nil && td.isIface
}

// ResolveType implements Reader. Nested-type tokens that have not been
// baked yet fail to resolve.
func (m *Model) ResolveType(tok Token) (TypeID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md := m.memberAt(tok)
	if md == nil || md.kind != NestedType {
		return 0, errors.Errorf("token %#x is not a nested-type token", tok)
	}
	if md.resolves == 0 {
		return 0, errors.Errorf("type %q is not loadable yet", md.name)
	}
	return md.resolves, nil
}

// TypeAttrs implements Reader.
func (m *Model) TypeAttrs(t TypeID) Attr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return 0
	}
	return td.attrs
}

// TypeName implements Reader.
func (m *Model) TypeName(t TypeID, f NameFormat) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return ""
	}
	switch f {
	case ShortName:
		return td.name
	case FullName:
		return m.fullName(td)
	case DebugName:
		word := "class"
		if td.isIface {
			word = "interface"
		}
		return word + " " + m.fullName(td)
	}
	return td.name
}

// fullName renders the namespace-qualified name, joining nested types to
// their enclosing path with '+'. Callers hold at least the read lock.
func (m *Model) fullName(td *typeDef) string {
	path := td.name
	for td.enclosing != 0 {
		td = m.typeAt(td.enclosing)
		path = td.name + "+" + path
	}
	if td.namespace == "" {
		return path
	}
	return td.namespace + "." + path
}

// Namespace implements Reader.
func (m *Model) Namespace(t TypeID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return ""
	}
	return td.namespace
}

// DefaultMemberName implements Reader.
func (m *Model) DefaultMemberName(t TypeID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil {
		return ""
	}
	return td.defaultMember
}

// EnclosingType implements Reader.
func (m *Model) EnclosingType(t TypeID) (TypeID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	td := m.typeAt(t)
	if td == nil || td.enclosing == 0 {
		return 0, false
	}
	return td.enclosing, true
}

// Types returns the identities of every type in the model, in declaration
// order.
func (m *Model) Types() []TypeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TypeID, len(m.types))
	for i := range m.types {
		out[i] = TypeID(i + 1)
	}
	return out
}

// TypeByName finds a type by its full name, falling back to a short-name
// match when the full name is not known.
func (m *Model) TypeByName(name string) (TypeID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.byName[name]; ok {
		return t, true
	}
	for i, td := range m.types {
		if td.name == name {
			return TypeID(i + 1), true
		}
	}
	return 0, false
}

// AddNested bakes a brand-new nested type into an existing enclosing type,
// the way reflection-emit introduces nested types after the enclosing type
// was loaded. It returns the new type's identity. The enclosing type's
// nested-type member cache must be invalidated by the caller for the new
// type to become visible through the cache.
func (m *Model) AddNested(outer TypeID, name string, attrs Attr) TypeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	outerDef := m.typeAt(outer)
	td := &typeDef{
		name:      name,
		namespace: outerDef.namespace,
		attrs:     attrs,
		enclosing: outer,
		members:   map[Kind][]Token{},
	}
	m.types = append(m.types, td)
	id := TypeID(len(m.types))
	m.byName[m.fullName(td)] = id

	m.members = append(m.members, &memberDef{
		kind:      NestedType,
		name:      name,
		attrs:     attrs,
		declaring: outer,
		slot:      NoSlot,
		resolves:  id,
	})
	tok := Token(len(m.members))
	outerDef.members[NestedType] = append(outerDef.members[NestedType], tok)
	return id
}

// Bake resolves a pending nested-type token (declared with PendingNested on
// the builder) into a loaded type. Until baked, the token is skipped during
// nested-type enumeration.
func (m *Model) Bake(tok Token, attrs Attr) (TypeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md := m.memberAt(tok)
	if md == nil || md.kind != NestedType {
		return 0, errors.Errorf("token %#x is not a nested-type token", tok)
	}
	if md.resolves != 0 {
		return 0, errors.Errorf("type %q is already baked", md.name)
	}
	outerDef := m.typeAt(md.declaring)
	td := &typeDef{
		name:      md.name,
		namespace: outerDef.namespace,
		attrs:     attrs,
		enclosing: md.declaring,
		members:   map[Kind][]Token{},
	}
	m.types = append(m.types, td)
	id := TypeID(len(m.types))
	m.byName[m.fullName(td)] = id
	md.resolves = id
	md.attrs = attrs
	return id, nil
}
