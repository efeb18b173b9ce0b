package metadata

// Builder assembles a Model. Types must be declared before they are used
// as a base, interface, or enclosing type, which also rules out cycles.
// Member tokens are handed out at declaration time and keep their values
// in the built Model.
type Builder struct {
	types   []*TypeBuilder
	members []*builderMember
}

// builderMember is a member declaration awaiting Build.
type builderMember struct {
	kind  Kind
	name  string
	attrs Attr
	sig   Signature
	owner *TypeBuilder

	// nested is the declared type a nested-type token resolves to; nil
	// for pending tokens that will only resolve once baked.
	nested *TypeBuilder
}

// TypeBuilder declares a single type. Obtain one from Builder.Type.
type TypeBuilder struct {
	b *Builder

	id            TypeID
	name          string
	namespace     string
	attrs         Attr
	isIface       bool
	base          *TypeBuilder
	interfaces    []*TypeBuilder
	enclosing     *TypeBuilder
	defaultMember string
}

// TypeOption configures a type at declaration time.
type TypeOption func(*TypeBuilder)

// InNamespace places the type in the given namespace.
func InNamespace(ns string) TypeOption {
	return func(tb *TypeBuilder) { tb.namespace = ns }
}

// WithBase sets the type's direct base.
func WithBase(base *TypeBuilder) TypeOption {
	return func(tb *TypeBuilder) { tb.base = base }
}

// AsInterface declares the type as an interface.
func AsInterface() TypeOption {
	return func(tb *TypeBuilder) { tb.isIface = true }
}

// Implements records interfaces the type implements (or, for an
// interface, extends).
func Implements(ifaces ...*TypeBuilder) TypeOption {
	return func(tb *TypeBuilder) { tb.interfaces = append(tb.interfaces, ifaces...) }
}

// WithAttrs sets the type's attribute bits. The default is Public.
func WithAttrs(attrs Attr) TypeOption {
	return func(tb *TypeBuilder) { tb.attrs = attrs }
}

// WithDefaultMember nominates the type's default member name.
func WithDefaultMember(name string) TypeOption {
	return func(tb *TypeBuilder) { tb.defaultMember = name }
}

// NestedIn declares the type as nested in outer, issuing the enclosing
// type's nested-type token for it.
func NestedIn(outer *TypeBuilder) TypeOption {
	return func(tb *TypeBuilder) {
		tb.enclosing = outer
		tb.namespace = outer.namespace
		tb.b.addMember(&builderMember{
			kind:   NestedType,
			name:   tb.name,
			owner:  outer,
			nested: tb,
		})
	}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Type declares a new type and returns its builder. Types are publicly
// visible unless WithAttrs says otherwise.
func (b *Builder) Type(name string, opts ...TypeOption) *TypeBuilder {
	tb := &TypeBuilder{b: b, name: name, attrs: Public}
	b.types = append(b.types, tb)
	tb.id = TypeID(len(b.types))
	for _, opt := range opts {
		opt(tb)
	}
	return tb
}

func (b *Builder) addMember(bm *builderMember) Token {
	b.members = append(b.members, bm)
	return Token(len(b.members))
}

// Method declares a method with the given canonical signature, for
// example "() int" or "(string, int) bool".
func (tb *TypeBuilder) Method(name string, attrs Attr, sig string) Token {
	return tb.b.addMember(&builderMember{
		kind: Method, name: name, attrs: attrs, sig: NewSignature(sig), owner: tb,
	})
}

// Constructor declares a constructor. Static constructors (type
// initializers) are named ".cctor", instance ones ".ctor".
func (tb *TypeBuilder) Constructor(attrs Attr, sig string) Token {
	name := ".ctor"
	if attrs&Static != 0 {
		name = ".cctor"
	}
	return tb.b.addMember(&builderMember{
		kind: Constructor, name: name, attrs: attrs, sig: NewSignature(sig), owner: tb,
	})
}

// Field declares a field of the given type rendering.
func (tb *TypeBuilder) Field(name string, attrs Attr, typ string) Token {
	return tb.b.addMember(&builderMember{
		kind: Field, name: name, attrs: attrs, sig: NewSignature(typ), owner: tb,
	})
}

// Property declares a property; sig is the accessor signature used for
// override matching, for example "() int".
func (tb *TypeBuilder) Property(name string, attrs Attr, sig string) Token {
	return tb.b.addMember(&builderMember{
		kind: Property, name: name, attrs: attrs, sig: NewSignature(sig), owner: tb,
	})
}

// Event declares an event with the given handler type rendering.
func (tb *TypeBuilder) Event(name string, attrs Attr, typ string) Token {
	return tb.b.addMember(&builderMember{
		kind: Event, name: name, attrs: attrs, sig: NewSignature(typ), owner: tb,
	})
}

// PendingNested declares a nested-type token whose type is not loadable
// yet. Enumeration skips it until Model.Bake resolves it.
func (tb *TypeBuilder) PendingNested(name string) Token {
	return tb.b.addMember(&builderMember{
		kind: NestedType, name: name, owner: tb,
	})
}

// Build assembles the Model. Vtable slots are assigned here: a virtual
// method or property whose name and signature match a virtual of the same
// kind in the base chain reuses that slot (an override); any other
// virtual gets a fresh slot at the end of the table.
func (b *Builder) Build() *Model {
	m := &Model{byName: make(map[string]TypeID, len(b.types))}

	for _, tb := range b.types {
		td := &typeDef{
			name:          tb.name,
			namespace:     tb.namespace,
			attrs:         tb.attrs,
			isIface:       tb.isIface,
			defaultMember: tb.defaultMember,
			members:       map[Kind][]Token{},
		}
		if tb.base != nil {
			td.base = tb.base.id
		}
		if tb.enclosing != nil {
			td.enclosing = tb.enclosing.id
		}
		for _, itb := range tb.interfaces {
			td.interfaces = append(td.interfaces, itb.id)
		}
		m.types = append(m.types, td)
	}
	for i, td := range m.types {
		m.byName[m.fullName(td)] = TypeID(i + 1)
	}

	m.members = make([]*memberDef, len(b.members))
	for i, bm := range b.members {
		md := &memberDef{
			kind:      bm.kind,
			name:      bm.name,
			attrs:     bm.attrs,
			declaring: bm.owner.id,
			sig:       bm.sig,
			slot:      NoSlot,
		}
		if bm.nested != nil {
			md.resolves = bm.nested.id
			md.attrs = bm.nested.attrs
		}
		m.members[i] = md
		ownerDef := m.types[bm.owner.id-1]
		ownerDef.members[bm.kind] = append(ownerDef.members[bm.kind], Token(i+1))
	}

	b.assignSlots(m)
	return m
}

// virtKey identifies a virtual member for override matching.
type virtKey struct {
	kind Kind
	name string
	hash uint64
}

// assignSlots computes vtable slots per type. Base types are always
// declared first, so a single pass in declaration order sees every base
// fully assigned before its subtypes.
func (b *Builder) assignSlots(m *Model) {
	slotTables := make([]map[virtKey]int, len(m.types))
	for ti, td := range m.types {
		table := map[virtKey]int{}
		count := 0
		if td.base != 0 {
			count = m.types[td.base-1].vslots
			for k, v := range slotTables[td.base-1] {
				table[k] = v
			}
		}
		for _, kind := range []Kind{Method, Property} {
			for _, tok := range td.members[kind] {
				md := m.members[tok-1]
				if md.attrs&Virtual == 0 {
					continue
				}
				key := virtKey{kind: md.kind, name: md.name, hash: md.sig.Hash()}
				if slot, ok := table[key]; ok {
					md.slot = slot
				} else {
					md.slot = count
					count++
				}
				table[key] = md.slot
			}
		}
		td.vslots = count
		slotTables[ti] = table
	}
}
