package shape

import (
	"strconv"
	"strings"

	"github.com/shapecast/shapecast/internal/entity"
)

// RenderTS renders the shape as a TypeScript type declaration named name.
// Deterministic ordering: object fields sorted lexicographically.
func RenderTS(name string, s *Shape) string {
	var b strings.Builder
	b.WriteString("export type ")
	b.WriteString(name)
	b.WriteString(" = ")
	renderTS(&b, s, 0)
	b.WriteString(";\n")
	return b.String()
}

func renderTS(b *strings.Builder, s *Shape, depth int) {
	if s == nil {
		b.WriteString("never")
		return
	}
	switch s.Kind {
	case KindScalar:
		b.WriteString(tsScalar(s.Scalar))
	case KindLiteral:
		if len(s.Literals) == 0 {
			b.WriteString("never")
			return
		}
		for i, lit := range s.Literals {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(strconv.Quote(lit))
		}
	case KindObject:
		names := s.FieldNames()
		if len(names) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for _, fieldName := range names {
			indent(b, depth+1)
			b.WriteString(tsKey(fieldName))
			b.WriteString(": ")
			renderTS(b, s.Fields[fieldName], depth+1)
			b.WriteString(";\n")
		}
		indent(b, depth)
		b.WriteString("}")
	case KindArray:
		b.WriteString("Array<")
		renderTS(b, s.Elem, depth)
		b.WriteString(">")
	case KindNullable:
		renderNullableTS(b, s.Elem, depth)
	}
}

// renderNullableTS parenthesizes literal unions so the null alternative
// binds to the whole union.
func renderNullableTS(b *strings.Builder, inner *Shape, depth int) {
	needsParens := inner != nil && inner.Kind == KindLiteral && len(inner.Literals) > 1
	if needsParens {
		b.WriteString("(")
	}
	renderTS(b, inner, depth)
	if needsParens {
		b.WriteString(")")
	}
	b.WriteString(" | null")
}

func tsScalar(t entity.ScalarType) string {
	switch t {
	case entity.ScalarString, entity.ScalarID, entity.ScalarTimestamp:
		return "string"
	case entity.ScalarInteger, entity.ScalarFloat:
		return "number"
	case entity.ScalarBoolean:
		return "boolean"
	case entity.ScalarJSON:
		return "unknown"
	default:
		return "unknown"
	}
}

// tsKey quotes field names that are not valid TS identifiers.
func tsKey(name string) string {
	if name == "" {
		return strconv.Quote(name)
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return strconv.Quote(name)
			}
		default:
			return strconv.Quote(name)
		}
	}
	return name
}

func indent(b *strings.Builder, depth int) {
	for range depth {
		b.WriteString("  ")
	}
}
