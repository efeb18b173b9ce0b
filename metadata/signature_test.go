package metadata_test

import (
	. "gopkg.in/check.v1"

	"github.com/canonical/membercache/metadata"
)

type SignatureSuite struct{}

var _ = Suite(&SignatureSuite{})

func (s *SignatureSuite) TestEqual(c *C) {
	a := metadata.NewSignature("(string, int) bool")
	b := metadata.NewSignature("(string, int) bool")
	c.Assert(a.Equal(b), Equals, true)
	c.Assert(a.Hash(), Equals, b.Hash())

	d := metadata.NewSignature("(string) bool")
	c.Assert(a.Equal(d), Equals, false)
}

func (s *SignatureSuite) TestString(c *C) {
	sig := metadata.NewSignature("() void")
	c.Assert(sig.String(), Equals, "() void")
}

func (s *SignatureSuite) TestZeroValue(c *C) {
	var zero metadata.Signature
	c.Assert(zero.Equal(metadata.NewSignature("")), Equals, false)
	c.Assert(zero.Equal(zero), Equals, true)
}
