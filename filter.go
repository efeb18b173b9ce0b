package membercache

import "strings"

// ListType is the axis along which cached member lists are partitioned:
// exact-name lookups (case-sensitive or not) and full enumeration.
type ListType uint8

const (
	// ListCaseSensitive matches members whose name equals the query
	// exactly.
	ListCaseSensitive ListType = iota
	// ListCaseInsensitive matches members whose name equals the query
	// under invariant case folding.
	ListCaseInsensitive
	// ListAll enumerates every member of the kind reachable from the
	// type.
	ListAll
	// listHandleToInfo merges a single just-resolved member into the
	// master list without occupying a name cache key.
	listHandleToInfo
)

// filter encapsulates a member name comparison policy so that population
// loops do not branch on the lookup mode at every candidate.
type filter struct {
	name string
	lt   ListType
}

func newFilter(name string, lt ListType) filter {
	return filter{name: name, lt: lt}
}

// RequiresStringComparison reports whether Match performs an actual name
// comparison. When it returns false, Match never returns false; hot paths
// consult this first so that they can skip fetching candidate names
// entirely.
func (f filter) RequiresStringComparison() bool {
	return f.lt == ListCaseSensitive || f.lt == ListCaseInsensitive
}

// Match reports whether a candidate name satisfies the filter.
func (f filter) Match(name string) bool {
	switch f.lt {
	case ListCaseSensitive:
		return name == f.name
	case ListCaseInsensitive:
		return strings.EqualFold(name, f.name)
	}
	return true
}
