// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package membercache_test

import (
	"golang.org/x/sync/errgroup"
	. "gopkg.in/check.v1"

	"github.com/canonical/membercache"
	"github.com/canonical/membercache/metadata"
)

type MemberListSuite struct{}

var _ = Suite(&MemberListSuite{})

func methodNames(list []*membercache.Method) []string {
	names := make([]string, len(list))
	for i, m := range list {
		names[i] = m.Name()
	}
	return names
}

func (s *MemberListSuite) TestOverrideExcluded(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	var renders []*membercache.Method
	for _, m := range rt.MethodList(membercache.ListAll, "") {
		if m.Name() == "Render" {
			renders = append(renders, m)
		}
	}
	// Control.Render is overridden by Button.Render; only the override
	// surfaces.
	c.Assert(renders, HasLen, 1)
	c.Assert(renders[0].DeclaringType(), Equals, f.button)
	c.Assert(renders[0].Inherited(), Equals, false)
	c.Assert(renders[0].IsVirtual(), Equals, true)
}

func (s *MemberListSuite) TestOverloadsBothSurface(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	measures := rt.MethodList(membercache.ListCaseSensitive, "Measure")
	// Non-virtual methods are never excluded by name: Button's overload
	// and Control's original coexist.
	c.Assert(measures, HasLen, 2)
	c.Assert(measures[0].DeclaringType(), Equals, f.button)
	c.Assert(measures[1].DeclaringType(), Equals, f.control)
	c.Assert(measures[1].Inherited(), Equals, true)
}

func (s *MemberListSuite) TestPrivateNonVirtualNotInherited(c *C) {
	f := newFixture(c)
	cache := membercache.NewCache(f.model)

	viaButton := cache.Type(f.button).MethodList(membercache.ListCaseSensitive, "layoutPass")
	c.Assert(viaButton, HasLen, 0)

	viaControl := cache.Type(f.control).MethodList(membercache.ListCaseSensitive, "layoutPass")
	c.Assert(viaControl, HasLen, 1)
}

func (s *MemberListSuite) TestIdentityAcrossPolicies(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	cs := rt.MethodList(membercache.ListCaseSensitive, "Click")
	c.Assert(cs, HasLen, 1)
	ci := rt.MethodList(membercache.ListCaseInsensitive, "CLICK")
	c.Assert(ci, HasLen, 1)
	c.Assert(ci[0], Equals, cs[0])

	var fromAll *membercache.Method
	for _, m := range rt.MethodList(membercache.ListAll, "") {
		if m.Token() == cs[0].Token() {
			fromAll = m
		}
	}
	c.Assert(fromAll, Equals, cs[0])
}

func (s *MemberListSuite) TestCaseInsensitiveSuperset(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	c.Assert(rt.MethodList(membercache.ListCaseSensitive, "click"), HasLen, 0)
	ci := rt.MethodList(membercache.ListCaseInsensitive, "click")
	c.Assert(ci, HasLen, 1)
	c.Assert(ci[0].Name(), Equals, "Click")
}

func (s *MemberListSuite) TestCompleteListAnswersMisses(c *C) {
	f := newFixture(c)
	reader := &countingReader{Reader: f.model}
	rt := membercache.NewCache(reader).Type(f.button)

	rt.MethodList(membercache.ListAll, "")
	walked := reader.enumerations.Load()

	// Once the full enumeration is cached, name queries, including
	// misses, are answered by filtering it.
	c.Assert(rt.MethodList(membercache.ListCaseSensitive, "NoSuchMethod"), HasLen, 0)
	c.Assert(rt.MethodList(membercache.ListCaseInsensitive, "click"), HasLen, 1)
	rt.MethodList(membercache.ListAll, "")
	c.Assert(reader.enumerations.Load(), Equals, walked)
}

func (s *MemberListSuite) TestMissMemoized(c *C) {
	f := newFixture(c)
	reader := &countingReader{Reader: f.model}
	rt := membercache.NewCache(reader).Type(f.button)

	c.Assert(rt.MethodList(membercache.ListCaseSensitive, "Zzz"), HasLen, 0)
	walked := reader.enumerations.Load()

	// The empty result is cached like any other.
	c.Assert(rt.MethodList(membercache.ListCaseSensitive, "Zzz"), HasLen, 0)
	c.Assert(reader.enumerations.Load(), Equals, walked)
}

func (s *MemberListSuite) TestListAllStableAcrossCalls(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	first := rt.MethodList(membercache.ListAll, "")
	second := rt.MethodList(membercache.ListAll, "")
	c.Assert(second, HasLen, len(first))
	for i := range first {
		c.Assert(second[i], Equals, first[i])
	}
	c.Assert(methodNames(first), DeepEquals, []string{
		"Render", "Describe", "Measure", "Click", "Measure", "Create",
	})
}

func (s *MemberListSuite) TestConstructorsNotInherited(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	ctors := rt.ConstructorList(membercache.ListAll, "")
	c.Assert(ctors, HasLen, 1)
	c.Assert(ctors[0].DeclaringType(), Equals, f.button)
}

func (s *MemberListSuite) TestInterfaceStaticFieldsAggregated(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	versions := rt.FieldList(membercache.ListCaseSensitive, "Version")
	// Both interface declarations are collected; disambiguation is the
	// single-result accessors' concern, not discovery's.
	c.Assert(versions, HasLen, 2)
	declaring := []metadata.TypeID{versions[0].DeclaringType(), versions[1].DeclaringType()}
	c.Assert(declaring, DeepEquals, []metadata.TypeID{f.persistent, f.versioned})
	c.Assert(versions[0].IsLiteral(), Equals, true)
}

func (s *MemberListSuite) TestPrivateFieldNotInherited(c *C) {
	f := newFixture(c)
	cache := membercache.NewCache(f.model)

	c.Assert(cache.Type(f.button).FieldList(membercache.ListCaseSensitive, "state"), HasLen, 0)
	c.Assert(cache.Type(f.control).FieldList(membercache.ListCaseSensitive, "state"), HasLen, 1)
}

func (s *MemberListSuite) TestPropertyOverrideExcluded(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	sizes := rt.PropertyList(membercache.ListCaseSensitive, "Size")
	c.Assert(sizes, HasLen, 1)
	c.Assert(sizes[0].DeclaringType(), Equals, f.button)
}

func (s *MemberListSuite) TestEventHiding(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	changed := rt.EventList(membercache.ListAll, "")
	c.Assert(changed, HasLen, 1)
	c.Assert(changed[0].DeclaringType(), Equals, f.button)
	c.Assert(changed[0].HandlerType().String(), Equals, "EventHandler")
}

func (s *MemberListSuite) TestInterfaceClosure(c *C) {
	f := newFixture(c)
	cache := membercache.NewCache(f.model)
	rt := cache.Type(f.button)

	ifaces := rt.InterfaceList(membercache.ListAll, "")
	ids := make([]metadata.TypeID, len(ifaces))
	for i, iface := range ifaces {
		ids[i] = iface.ID()
	}
	// Declared interfaces in order, then the transitively extended one.
	c.Assert(ids, DeepEquals, []metadata.TypeID{f.styled, f.persistent, f.versioned, f.renderable})

	// Interface list elements are the interned type descriptors.
	c.Assert(ifaces[0], Equals, cache.Type(f.styled))
}

func (s *MemberListSuite) TestSyntheticInterfaces(c *C) {
	f := newFixture(c)
	cache := membercache.NewCache(f.model, membercache.WithSyntheticInterfaces(
		func(id metadata.TypeID) []metadata.TypeID {
			if id == f.control {
				return []metadata.TypeID{f.renderable}
			}
			return nil
		}))

	ifaces := cache.Type(f.control).InterfaceList(membercache.ListAll, "")
	c.Assert(ifaces, HasLen, 1)
	c.Assert(ifaces[0].ID(), Equals, f.renderable)
}

func (s *MemberListSuite) TestPendingNestedSkipped(c *C) {
	f := newFixture(c)
	cache := membercache.NewCache(f.model)
	rt := cache.Type(f.control)

	// The pending token is not loadable and must be skipped silently.
	c.Assert(rt.NestedTypeList(membercache.ListAll, ""), HasLen, 0)

	id, err := f.model.Bake(f.lazyTok, metadata.Public)
	c.Assert(err, IsNil)

	// The cached enumeration predates the bake; invalidation is explicit.
	c.Assert(rt.NestedTypeList(membercache.ListAll, ""), HasLen, 0)
	rt.InvalidateNestedTypes()
	baked := rt.NestedTypeList(membercache.ListAll, "")
	c.Assert(baked, HasLen, 1)
	c.Assert(baked[0].ID(), Equals, id)
	c.Assert(baked[0].Name(), Equals, "Lazy")
}

func (s *MemberListSuite) TestAddNestedThenInvalidate(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	c.Assert(rt.NestedTypeList(membercache.ListAll, ""), HasLen, 1)

	f.model.AddNested(f.button, "Badge", metadata.Public)
	rt.InvalidateNestedTypes()
	nested := rt.NestedTypeList(membercache.ListAll, "")
	c.Assert(nested, HasLen, 2)
	c.Assert(nested[1].Name(), Equals, "Badge")
	c.Assert(nested[1].FullName(), Equals, "acme.ui.Button+Badge")
}

func (s *MemberListSuite) TestConcurrentFirstQuery(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	results := make([][]*membercache.Method, 8)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = rt.MethodList(membercache.ListAll, "")
			return nil
		})
	}
	c.Assert(g.Wait(), IsNil)

	// Redundant walks may race, but every caller sees the same canonical
	// descriptor per member token.
	byToken := map[metadata.Token]*membercache.Method{}
	for _, list := range results {
		c.Assert(list, HasLen, len(results[0]))
		for _, m := range list {
			if prev, ok := byToken[m.Token()]; ok {
				c.Assert(m, Equals, prev)
			} else {
				byToken[m.Token()] = m
			}
		}
	}
}

func (s *MemberListSuite) TestConcurrentMixedPolicies(c *C) {
	f := newFixture(c)
	rt := membercache.NewCache(f.model).Type(f.button)

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			rt.MethodList(membercache.ListAll, "")
			return nil
		})
		g.Go(func() error {
			rt.MethodList(membercache.ListCaseSensitive, "Click")
			return nil
		})
		g.Go(func() error {
			rt.MethodList(membercache.ListCaseInsensitive, "render")
			return nil
		})
	}
	c.Assert(g.Wait(), IsNil)

	cs := rt.MethodList(membercache.ListCaseSensitive, "Click")
	c.Assert(cs, HasLen, 1)
	var fromAll *membercache.Method
	for _, m := range rt.MethodList(membercache.ListAll, "") {
		if m.Token() == cs[0].Token() {
			fromAll = m
		}
	}
	c.Assert(fromAll, Equals, cs[0])
}
