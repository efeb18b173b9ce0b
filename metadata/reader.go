// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metadata defines the contract between the member cache and the
// metadata reader that backs it, along with an in-memory reader
// implementation suitable for tests and tooling.
//
// The cache never interprets raw metadata itself. It consumes a Reader,
// which enumerates the members a type introduces and answers questions
// about individual member tokens. Readers must return tokens in a stable
// declaration order so that repeated enumeration of the same type is
// deterministic.
package metadata

// TypeID identifies a loaded type. The zero value denotes "no type".
type TypeID uint32

// Token is an opaque handle for a member (method, constructor, field,
// property, event or nested-type reference). Tokens are unique across a
// Reader, irrespective of member kind. The zero value denotes "no member".
type Token uint32

// Kind enumerates the member kinds a type can own.
type Kind uint8

const (
	Method Kind = iota
	Constructor
	Field
	Property
	Event
	Interface
	NestedType
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Method:
		return "method"
	case Constructor:
		return "constructor"
	case Field:
		return "field"
	case Property:
		return "property"
	case Event:
		return "event"
	case Interface:
		return "interface"
	case NestedType:
		return "nested type"
	}
	return "unknown"
}

// Attr holds the raw attribute bits of a member or type.
//
// A member carrying neither Public nor Private has family/assembly scope:
// it is non-public but still visible, and inherited, from subtypes. Private
// non-virtual members are not inherited at all.
type Attr uint16

const (
	Public Attr = 1 << iota
	Private
	Static
	Virtual
	Abstract
	Final
	// Literal marks a compile-time constant field.
	Literal
	SpecialName
)

// NoSlot is returned by VirtualSlot for members that do not occupy a
// vtable slot.
const NoSlot = -1

// NameFormat selects which rendering of a type name to produce.
type NameFormat uint8

const (
	// ShortName is the bare type name without namespace or enclosing path.
	ShortName NameFormat = iota
	// FullName is the namespace-qualified name; nested types are joined
	// to their enclosing types with '+'.
	FullName
	// DebugName is the diagnostic rendering used by ToString-style output.
	DebugName
)

// Reader is the metadata collaborator consumed by the member cache.
//
// All methods are pure lookups over already-resident metadata: they
// perform no I/O, never block, and are safe for concurrent use. Calling a
// member accessor with a token the Reader did not issue is undefined.
type Reader interface {
	// Enumerate returns the member tokens of the given kind introduced by
	// the type itself (not inherited ones), in declaration order. Unknown
	// or pseudo types yield a nil slice, never an error.
	Enumerate(t TypeID, k Kind) []Token

	// MemberKind returns the kind the token was issued for.
	MemberKind(tok Token) Kind
	// MemberName returns the member's declared name.
	MemberName(tok Token) string
	// MemberAttrs returns the member's raw attribute bits.
	MemberAttrs(tok Token) Attr
	// MemberSignature returns the member's signature. For fields and
	// events this is the field/handler type rendering.
	MemberSignature(tok Token) Signature
	// DeclaringType returns the type that introduced the member.
	DeclaringType(tok Token) TypeID
	// VirtualSlot returns the vtable slot the member occupies, or NoSlot.
	VirtualSlot(tok Token) int

	// VirtualSlotCount returns the total number of vtable slots of the
	// type, including inherited ones.
	VirtualSlotCount(t TypeID) int
	// BaseType returns the direct base of a type, if it has one.
	BaseType(t TypeID) (TypeID, bool)
	// Interfaces returns the interfaces the type itself declares it
	// implements (or, for an interface, extends). Transitive closure is
	// the caller's concern.
	Interfaces(t TypeID) []TypeID
	// IsInterface reports whether the type is an interface.
	IsInterface(t TypeID) bool
	// ResolveType resolves a nested-type token to a loaded type. It fails
	// for types that are not yet loadable (for example dynamically
	// generated types that have not been baked); callers must treat
	// failure as "skip", not as a reason to abort enumeration.
	ResolveType(tok Token) (TypeID, error)

	// TypeAttrs returns the attribute bits of the type itself.
	TypeAttrs(t TypeID) Attr
	// TypeName renders the type name in the requested format.
	TypeName(t TypeID, f NameFormat) string
	// Namespace returns the namespace the type lives in.
	Namespace(t TypeID) string
	// DefaultMemberName returns the name nominated as the type's default
	// member, or the empty string.
	DefaultMemberName(t TypeID) string
	// EnclosingType returns the type a nested type is declared in.
	EnclosingType(t TypeID) (TypeID, bool)
}
