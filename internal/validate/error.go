package validate

import (
	"fmt"

	"github.com/shapecast/shapecast/internal/selection"
)

// ErrorKind classifies a selection validation failure.
type ErrorKind string

const (
	UnknownPrimitiveField        ErrorKind = "UNKNOWN_PRIMITIVE_FIELD"
	UnknownComplexField          ErrorKind = "UNKNOWN_COMPLEX_FIELD"
	InvalidUnionVariant          ErrorKind = "INVALID_UNION_VARIANT"
	MissingCalculationArgs       ErrorKind = "MISSING_CALCULATION_ARGS"
	AmbiguousOrInvalidPagination ErrorKind = "AMBIGUOUS_OR_INVALID_PAGINATION"
	RecursionDepthExceeded       ErrorKind = "RECURSION_DEPTH_EXCEEDED"

	// MalformedSelection guards structural misuse the named kinds do not
	// cover: a calculation value on a plain field, args naming undeclared
	// parameters, sub-selections under scalar returns.
	MalformedSelection ErrorKind = "MALFORMED_SELECTION"
)

// Error is a path-qualified validation failure. Errors are deterministic
// functions of the (entity, selection) pair; retrying the same request
// yields the same error.
type Error struct {
	Kind ErrorKind      `json:"kind"`
	Path selection.Path `json:"path"`
	Name string         `json:"name,omitempty"`
}

func (e *Error) Error() string {
	at := ""
	if len(e.Path) > 0 {
		at = " at " + e.Path.String()
	}
	switch e.Kind {
	case UnknownPrimitiveField:
		return fmt.Sprintf("unknown primitive field %q%s", e.Name, at)
	case UnknownComplexField:
		return fmt.Sprintf("unknown complex field %q%s", e.Name, at)
	case InvalidUnionVariant:
		return fmt.Sprintf("invalid union variant %q%s", e.Name, at)
	case MissingCalculationArgs:
		return fmt.Sprintf("calculation %q requires args%s", e.Name, at)
	case AmbiguousOrInvalidPagination:
		return fmt.Sprintf("ambiguous or invalid pagination parameter%s", at)
	case RecursionDepthExceeded:
		return fmt.Sprintf("selection exceeds maximum depth%s", at)
	case MalformedSelection:
		if e.Name != "" {
			return fmt.Sprintf("malformed selection for %q%s", e.Name, at)
		}
		return fmt.Sprintf("malformed selection%s", at)
	default:
		return fmt.Sprintf("invalid selection%s", at)
	}
}
