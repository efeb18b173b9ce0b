package metadata

import (
	"github.com/cespare/xxhash/v2"
)

// Signature is a member signature: a canonical textual description paired
// with a 64-bit hash of it. The hash makes the common "signatures differ"
// case a single integer compare; the text settles collisions and carries
// the human-readable rendering.
type Signature struct {
	desc string
	hash uint64
}

// NewSignature builds a Signature from its canonical description.
func NewSignature(desc string) Signature {
	return Signature{desc: desc, hash: xxhash.Sum64String(desc)}
}

// Equal reports whether two signatures denote the same shape.
func (s Signature) Equal(o Signature) bool {
	return s.hash == o.hash && s.desc == o.desc
}

// Hash returns the signature's 64-bit hash.
func (s Signature) Hash() uint64 {
	return s.hash
}

// String returns the canonical description.
func (s Signature) String() string {
	return s.desc
}
