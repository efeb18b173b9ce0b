package metadata_test

import (
	. "gopkg.in/check.v1"

	"github.com/canonical/membercache/metadata"
)

type ModelSuite struct{}

var _ = Suite(&ModelSuite{})

// buildPair declares a two-level hierarchy used by most of the tests:
// Animal with virtual Speak and Weight, Dog overriding Speak and adding a
// fresh virtual Fetch.
func buildPair() (*metadata.Model, metadata.TypeID, metadata.TypeID) {
	b := metadata.NewBuilder()
	animal := b.Type("Animal", metadata.InNamespace("zoo"))
	animal.Method("Speak", metadata.Public|metadata.Virtual, "() string")
	animal.Property("Weight", metadata.Public|metadata.Virtual, "() int")
	animal.Method("Eat", metadata.Public, "() void")

	dog := b.Type("Dog", metadata.InNamespace("zoo"), metadata.WithBase(animal))
	dog.Method("Speak", metadata.Public|metadata.Virtual, "() string")
	dog.Method("Fetch", metadata.Public|metadata.Virtual, "() void")

	m := b.Build()
	animalID, _ := m.TypeByName("zoo.Animal")
	dogID, _ := m.TypeByName("zoo.Dog")
	return m, animalID, dogID
}

func (s *ModelSuite) TestSlotAssignment(c *C) {
	m, animal, dog := buildPair()

	c.Assert(m.VirtualSlotCount(animal), Equals, 2)
	c.Assert(m.VirtualSlotCount(dog), Equals, 3)

	slotOf := func(t metadata.TypeID, k metadata.Kind, name string) int {
		for _, tok := range m.Enumerate(t, k) {
			if m.MemberName(tok) == name {
				return m.VirtualSlot(tok)
			}
		}
		c.Fatalf("member %q not found", name)
		return metadata.NoSlot
	}

	// The override shares its base slot; the fresh virtual extends the
	// table.
	c.Assert(slotOf(dog, metadata.Method, "Speak"), Equals, slotOf(animal, metadata.Method, "Speak"))
	c.Assert(slotOf(dog, metadata.Method, "Fetch"), Equals, 2)
	c.Assert(slotOf(animal, metadata.Method, "Eat"), Equals, metadata.NoSlot)
	c.Assert(slotOf(animal, metadata.Property, "Weight"), Equals, 1)
}

func (s *ModelSuite) TestOverrideRequiresMatchingSignature(c *C) {
	b := metadata.NewBuilder()
	base := b.Type("Base")
	base.Method("Run", metadata.Public|metadata.Virtual, "() void")
	derived := b.Type("Derived", metadata.WithBase(base))
	derived.Method("Run", metadata.Public|metadata.Virtual, "(int) void")
	m := b.Build()

	id, _ := m.TypeByName("Derived")
	// A differing signature is a new virtual, not an override.
	c.Assert(m.VirtualSlotCount(id), Equals, 2)
}

func (s *ModelSuite) TestOverrideRequiresMatchingKind(c *C) {
	b := metadata.NewBuilder()
	base := b.Type("Base")
	base.Method("Value", metadata.Public|metadata.Virtual, "() int")
	derived := b.Type("Derived", metadata.WithBase(base))
	derived.Property("Value", metadata.Public|metadata.Virtual, "() int")
	m := b.Build()

	id, _ := m.TypeByName("Derived")
	// A property never overrides a method even with matching name and
	// signature.
	c.Assert(m.VirtualSlotCount(id), Equals, 2)
}

func (s *ModelSuite) TestEnumerateReturnsCopies(c *C) {
	m, animal, _ := buildPair()

	toks := m.Enumerate(animal, metadata.Method)
	c.Assert(toks, HasLen, 2)
	toks[0] = 0

	again := m.Enumerate(animal, metadata.Method)
	c.Assert(again[0], Not(Equals), metadata.Token(0))
}

func (s *ModelSuite) TestEnumerateUnknownType(c *C) {
	m, _, _ := buildPair()
	c.Assert(m.Enumerate(metadata.TypeID(99), metadata.Method), IsNil)
	c.Assert(m.Enumerate(0, metadata.Method), IsNil)
}

func (s *ModelSuite) TestNames(c *C) {
	b := metadata.NewBuilder()
	outer := b.Type("Outer", metadata.InNamespace("a.b"))
	b.Type("Inner", metadata.NestedIn(outer))
	m := b.Build()

	id, ok := m.TypeByName("a.b.Outer+Inner")
	c.Assert(ok, Equals, true)
	c.Assert(m.TypeName(id, metadata.ShortName), Equals, "Inner")
	c.Assert(m.TypeName(id, metadata.FullName), Equals, "a.b.Outer+Inner")
	c.Assert(m.TypeName(id, metadata.DebugName), Equals, "class a.b.Outer+Inner")
	c.Assert(m.Namespace(id), Equals, "a.b")

	enc, ok := m.EnclosingType(id)
	c.Assert(ok, Equals, true)
	c.Assert(m.TypeName(enc, metadata.ShortName), Equals, "Outer")
}

func (s *ModelSuite) TestTypeByNameShortFallback(c *C) {
	m, animal, _ := buildPair()
	id, ok := m.TypeByName("Animal")
	c.Assert(ok, Equals, true)
	c.Assert(id, Equals, animal)

	_, ok = m.TypeByName("Giraffe")
	c.Assert(ok, Equals, false)
}

func (s *ModelSuite) TestPendingNestedLifecycle(c *C) {
	b := metadata.NewBuilder()
	outer := b.Type("Outer")
	tok := outer.PendingNested("Lazy")
	m := b.Build()

	_, err := m.ResolveType(tok)
	c.Assert(err, ErrorMatches, `type "Lazy" is not loadable yet`)

	id, err := m.Bake(tok, metadata.Public)
	c.Assert(err, IsNil)

	resolved, err := m.ResolveType(tok)
	c.Assert(err, IsNil)
	c.Assert(resolved, Equals, id)

	_, err = m.Bake(tok, metadata.Public)
	c.Assert(err, ErrorMatches, `type "Lazy" is already baked`)
}

func (s *ModelSuite) TestResolveTypeWrongKind(c *C) {
	m, animal, _ := buildPair()
	tok := m.Enumerate(animal, metadata.Method)[0]
	_, err := m.ResolveType(tok)
	c.Assert(err, ErrorMatches, "token 0x.* is not a nested-type token")
}

func (s *ModelSuite) TestAddNested(c *C) {
	m, _, dog := buildPair()

	id := m.AddNested(dog, "Collar", metadata.Public)
	c.Assert(m.TypeName(id, metadata.FullName), Equals, "zoo.Dog+Collar")

	toks := m.Enumerate(dog, metadata.NestedType)
	c.Assert(toks, HasLen, 1)
	resolved, err := m.ResolveType(toks[0])
	c.Assert(err, IsNil)
	c.Assert(resolved, Equals, id)

	byName, ok := m.TypeByName("zoo.Dog+Collar")
	c.Assert(ok, Equals, true)
	c.Assert(byName, Equals, id)
}

func (s *ModelSuite) TestInterfaceDeclarations(c *C) {
	b := metadata.NewBuilder()
	walker := b.Type("IWalker", metadata.AsInterface())
	swimmer := b.Type("ISwimmer", metadata.AsInterface(), metadata.Implements(walker))
	b.Type("Duck", metadata.Implements(swimmer))
	m := b.Build()

	duckID, _ := m.TypeByName("Duck")
	swimmerID, _ := m.TypeByName("ISwimmer")
	walkerID, _ := m.TypeByName("IWalker")

	// Interfaces returns declared implementations only; closure is the
	// caller's concern.
	c.Assert(m.Interfaces(duckID), DeepEquals, []metadata.TypeID{swimmerID})
	c.Assert(m.Interfaces(swimmerID), DeepEquals, []metadata.TypeID{walkerID})
	c.Assert(m.IsInterface(swimmerID), Equals, true)
	c.Assert(m.IsInterface(duckID), Equals, false)
}

func (s *ModelSuite) TestDefaultMember(c *C) {
	b := metadata.NewBuilder()
	b.Type("List", metadata.WithDefaultMember("Item"))
	b.Type("Plain")
	m := b.Build()

	listID, _ := m.TypeByName("List")
	plainID, _ := m.TypeByName("Plain")
	c.Assert(m.DefaultMemberName(listID), Equals, "Item")
	c.Assert(m.DefaultMemberName(plainID), Equals, "")
}
