package membercache

import (
	stderrors "errors"
	"fmt"
)

// AmbiguousMatchError reports that a single-result query matched two or
// more structurally distinct members with no override relationship
// between them. It is raised only by the caller-facing single-result
// accessors; cache population itself only aggregates candidates.
type AmbiguousMatchError struct {
	// Type is the full name of the queried type.
	Type string
	// Name is the requested member name.
	Name string
	// Matches holds the conflicting members.
	Matches []Member
}

// Error implements error.
func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %q on %s: %d members satisfy the query",
		e.Name, e.Type, len(e.Matches))
}

// IsAmbiguousMatch reports whether err is an ambiguous-match condition.
func IsAmbiguousMatch(err error) bool {
	var ambiguous *AmbiguousMatchError
	return stderrors.As(err, &ambiguous)
}

func ambiguousMatch(rt *RuntimeType, name string, matches ...Member) error {
	return &AmbiguousMatchError{Type: rt.FullName(), Name: name, Matches: matches}
}
