// Package shape defines the output-shape descriptor produced by projecting
// a selection against an entity, together with the structural merge used to
// combine sibling contributions and the TypeScript emission target.
package shape

import (
	"sort"

	"github.com/shapecast/shapecast/internal/entity"
)

// Kind identifies the category of a shape node.
type Kind string

const (
	KindScalar   Kind = "SCALAR"
	KindLiteral  Kind = "LITERAL"
	KindObject   Kind = "OBJECT"
	KindArray    Kind = "ARRAY"
	KindNullable Kind = "NULLABLE"
)

// Shape is a structural description of a projection result. It is the
// contract between the projection engine and the runtime extractor: the
// extractor must produce values matching this structure exactly.
type Shape struct {
	Kind Kind `json:"kind"`

	// Scalar is set for SCALAR shapes.
	Scalar entity.ScalarType `json:"scalar,omitempty"`

	// Literals is the sorted set of string literals for LITERAL shapes
	// (union tag enumerations).
	Literals []string `json:"literals,omitempty"`

	// Fields maps field names to their shapes for OBJECT shapes.
	Fields map[string]*Shape `json:"fields,omitempty"`

	// Elem is the wrapped shape for ARRAY and NULLABLE shapes.
	Elem *Shape `json:"elem,omitempty"`

	// Args annotates a calculation node with the argument contract it was
	// selected under, typed per the calculation's argument schema. It is
	// metadata on the node, not part of the data shape.
	Args map[string]*Shape `json:"args,omitempty"`
}

// Scalar returns a scalar shape.
func Scalar(t entity.ScalarType) *Shape { return &Shape{Kind: KindScalar, Scalar: t} }

// Literal returns a literal-union shape over the given values,
// deduplicated and sorted for deterministic output.
func Literal(values ...string) *Shape {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return &Shape{Kind: KindLiteral, Literals: out}
}

// Object returns an object shape over the given fields.
func Object(fields map[string]*Shape) *Shape {
	if fields == nil {
		fields = map[string]*Shape{}
	}
	return &Shape{Kind: KindObject, Fields: fields}
}

// Array wraps elem in an array shape.
func Array(elem *Shape) *Shape { return &Shape{Kind: KindArray, Elem: elem} }

// Nullable wraps elem in a nullable shape. Wrapping an already nullable
// shape is a no-op.
func Nullable(elem *Shape) *Shape {
	if elem != nil && elem.Kind == KindNullable {
		return elem
	}
	return &Shape{Kind: KindNullable, Elem: elem}
}

// IsNullable reports whether the shape admits null.
func (s *Shape) IsNullable() bool { return s != nil && s.Kind == KindNullable }

// Unwrap removes one ARRAY or NULLABLE layer and returns the inner shape.
func (s *Shape) Unwrap() *Shape {
	if s == nil {
		return nil
	}
	if s.Kind == KindArray || s.Kind == KindNullable {
		return s.Elem
	}
	return s
}

// FieldNames returns an object shape's field names in lexical order.
func (s *Shape) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
