package resolve

import (
	"fmt"
	"strings"

	"iopls/internal/symbols"
)

// UnresolvedPackageError is returned when a qualified reference names a
// package no indexed file declares.
type UnresolvedPackageError struct {
	Package string
}

func (e *UnresolvedPackageError) Error() string {
	return fmt.Sprintf("package %q is not indexed", e.Package)
}

// ReferenceNotFoundError is returned when a reference matches no
// declaration under the applicable search scope.
type ReferenceNotFoundError struct {
	Ref string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("no definition found for %q", e.Ref)
}

// AmbiguousReferenceError is returned when a simple reference matches
// more than one declaration. Candidates carry the full list in
// deterministic order; the resolver never silently picks one.
type AmbiguousReferenceError struct {
	Ref        string
	Candidates []*symbols.Symbol
}

func (e *AmbiguousReferenceError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Qualified
	}
	return fmt.Sprintf("reference %q is ambiguous: %s", e.Ref, strings.Join(names, ", "))
}
