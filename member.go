package membercache

import (
	"github.com/canonical/membercache/metadata"
)

// BindingFlags constrain which members a lookup considers.
type BindingFlags uint16

const (
	// DeclaredOnly excludes members inherited from base types.
	DeclaredOnly BindingFlags = 1 << iota
	// Instance includes non-static members.
	Instance
	// Static includes static members.
	Static
	// Public includes public members.
	Public
	// NonPublic includes members that are not public.
	NonPublic
	// FlattenHierarchy includes static members declared on base types.
	// Without it, inherited statics are invisible.
	FlattenHierarchy
	// IgnoreCase makes name comparison case-insensitive.
	IgnoreCase
)

// DefaultLookup is applied when a query passes zero flags.
const DefaultLookup = Public | Instance | Static

// precalcFlags derives the compact flag set a member is filtered by. It is
// computed once at discovery time so that later filtering is a mask
// compare rather than a re-derivation from raw attributes.
func precalcFlags(attrs metadata.Attr, inherited bool) BindingFlags {
	flags := NonPublic
	if attrs&metadata.Public != 0 {
		flags = Public
	}
	if attrs&metadata.Static != 0 {
		flags |= Static
		if inherited {
			// Inherited statics only surface when the caller asks for
			// the flattened hierarchy.
			flags |= FlattenHierarchy
		}
	} else {
		flags |= Instance
	}
	return flags
}

// matchBinding reports whether member m satisfies the caller's flags.
func matchBinding(flags BindingFlags, m Member) bool {
	if flags&DeclaredOnly != 0 && m.Inherited() {
		return false
	}
	mf := m.BindingFlags()
	if flags&(Public|NonPublic)&mf == 0 {
		return false
	}
	if mf&Static != 0 {
		if flags&Static == 0 {
			return false
		}
		if mf&FlattenHierarchy != 0 && flags&FlattenHierarchy == 0 {
			return false
		}
	} else if flags&Instance == 0 {
		return false
	}
	return true
}

// Member is the common surface of cached member descriptors. Two
// descriptors denote the same member exactly when their tokens are equal,
// irrespective of which per-type cache discovered them.
type Member interface {
	// Kind reports which member kind the descriptor is.
	Kind() metadata.Kind
	// Name is the member's declared name.
	Name() string
	// Token is the member's identity.
	Token() metadata.Token
	// DeclaringType is the type that introduced the member.
	DeclaringType() metadata.TypeID
	// BindingFlags is the precalculated filter mask.
	BindingFlags() BindingFlags
	// Inherited reports whether the member was discovered on a base
	// level of the reflected type rather than on the type itself.
	Inherited() bool
}

// memberInfo carries the identity and discovery-time derived state shared
// by every descriptor kind.
type memberInfo struct {
	token     metadata.Token
	name      string
	attrs     metadata.Attr
	declaring metadata.TypeID
	reflected *RuntimeType
	flags     BindingFlags
	inherited bool
}

func newMemberInfo(rt *RuntimeType, tok metadata.Token, inherited bool) memberInfo {
	r := rt.cache.reader
	attrs := r.MemberAttrs(tok)
	return memberInfo{
		token:     tok,
		name:      r.MemberName(tok),
		attrs:     attrs,
		declaring: r.DeclaringType(tok),
		reflected: rt,
		flags:     precalcFlags(attrs, inherited),
		inherited: inherited,
	}
}

// Name returns the member's declared name.
func (m *memberInfo) Name() string { return m.name }

// Token returns the member's identity handle.
func (m *memberInfo) Token() metadata.Token { return m.token }

// Attrs returns the member's raw attribute bits.
func (m *memberInfo) Attrs() metadata.Attr { return m.attrs }

// DeclaringType returns the identity of the type that introduced the
// member.
func (m *memberInfo) DeclaringType() metadata.TypeID { return m.declaring }

// Declaring returns the declaring type's descriptor.
func (m *memberInfo) Declaring() *RuntimeType {
	return m.reflected.cache.Type(m.declaring)
}

// ReflectedType returns the type the member was requested through.
func (m *memberInfo) ReflectedType() *RuntimeType { return m.reflected }

// BindingFlags returns the precalculated filter mask.
func (m *memberInfo) BindingFlags() BindingFlags { return m.flags }

// Inherited reports whether the member came from a base level.
func (m *memberInfo) Inherited() bool { return m.inherited }

// IsPublic reports whether the member is public.
func (m *memberInfo) IsPublic() bool { return m.attrs&metadata.Public != 0 }

// IsStatic reports whether the member is static.
func (m *memberInfo) IsStatic() bool { return m.attrs&metadata.Static != 0 }

// Method describes a method reachable from a type.
type Method struct {
	memberInfo
	slot int
	sig  metadata.Signature
}

func newMethod(rt *RuntimeType, tok metadata.Token, inherited bool) *Method {
	r := rt.cache.reader
	return &Method{
		memberInfo: newMemberInfo(rt, tok, inherited),
		slot:       r.VirtualSlot(tok),
		sig:        r.MemberSignature(tok),
	}
}

// Kind implements Member.
func (m *Method) Kind() metadata.Kind { return metadata.Method }

// Signature returns the method's signature.
func (m *Method) Signature() metadata.Signature { return m.sig }

// VirtualSlot returns the vtable slot the method occupies, or
// metadata.NoSlot for non-virtual methods.
func (m *Method) VirtualSlot() int { return m.slot }

// IsVirtual reports whether the method occupies a vtable slot.
func (m *Method) IsVirtual() bool { return m.slot != metadata.NoSlot }

// Constructor describes a constructor of a type. Constructors are never
// inherited.
type Constructor struct {
	memberInfo
	sig metadata.Signature
}

func newConstructor(rt *RuntimeType, tok metadata.Token, inherited bool) *Constructor {
	return &Constructor{
		memberInfo: newMemberInfo(rt, tok, inherited),
		sig:        rt.cache.reader.MemberSignature(tok),
	}
}

// Kind implements Member.
func (c *Constructor) Kind() metadata.Kind { return metadata.Constructor }

// Signature returns the constructor's signature.
func (c *Constructor) Signature() metadata.Signature { return c.sig }

// Field describes a field reachable from a type.
type Field struct {
	memberInfo
	typ metadata.Signature
}

func newField(rt *RuntimeType, tok metadata.Token, inherited bool) *Field {
	return &Field{
		memberInfo: newMemberInfo(rt, tok, inherited),
		typ:        rt.cache.reader.MemberSignature(tok),
	}
}

// Kind implements Member.
func (f *Field) Kind() metadata.Kind { return metadata.Field }

// FieldType returns the rendering of the field's type.
func (f *Field) FieldType() metadata.Signature { return f.typ }

// IsLiteral reports whether the field is a compile-time constant.
func (f *Field) IsLiteral() bool { return f.attrs&metadata.Literal != 0 }

// Property describes a property reachable from a type.
type Property struct {
	memberInfo
	slot int
	sig  metadata.Signature
}

func newProperty(rt *RuntimeType, tok metadata.Token, inherited bool) *Property {
	r := rt.cache.reader
	return &Property{
		memberInfo: newMemberInfo(rt, tok, inherited),
		slot:       r.VirtualSlot(tok),
		sig:        r.MemberSignature(tok),
	}
}

// Kind implements Member.
func (p *Property) Kind() metadata.Kind { return metadata.Property }

// Signature returns the property's accessor signature.
func (p *Property) Signature() metadata.Signature { return p.sig }

// VirtualSlot returns the vtable slot of the property's accessor, or
// metadata.NoSlot.
func (p *Property) VirtualSlot() int { return p.slot }

// Event describes an event reachable from a type.
type Event struct {
	memberInfo
	typ metadata.Signature
}

func newEvent(rt *RuntimeType, tok metadata.Token, inherited bool) *Event {
	return &Event{
		memberInfo: newMemberInfo(rt, tok, inherited),
		typ:        rt.cache.reader.MemberSignature(tok),
	}
}

// Kind implements Member.
func (e *Event) Kind() metadata.Kind { return metadata.Event }

// HandlerType returns the rendering of the event's handler type.
func (e *Event) HandlerType() metadata.Signature { return e.typ }
