package shape

// Merge combines two shapes into one structural union. It is how sibling
// selection elements touching the same entity, and repeated picks of the
// same field, fold into a single result shape:
//
//   - objects merge key-wise, recursing on shared keys
//   - literal sets union their values
//   - arrays merge their element shapes
//   - nullability is sticky: if either side admits null, the merge does
//
// Validated selections only ever merge shapes of compatible structure; if
// the kinds still disagree, the later contribution wins.
func Merge(a, b *Shape) *Shape {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	nullable := a.Kind == KindNullable || b.Kind == KindNullable
	ai, bi := a, b
	if ai.Kind == KindNullable {
		ai = ai.Elem
	}
	if bi.Kind == KindNullable {
		bi = bi.Elem
	}

	merged := mergeBare(ai, bi)
	if nullable {
		merged = Nullable(merged)
	}
	return merged
}

func mergeBare(a, b *Shape) *Shape {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Kind != b.Kind {
		return b
	}

	switch a.Kind {
	case KindObject:
		fields := make(map[string]*Shape, len(a.Fields)+len(b.Fields))
		for name, s := range a.Fields {
			fields[name] = s
		}
		for name, s := range b.Fields {
			if prev, ok := fields[name]; ok {
				fields[name] = Merge(prev, s)
			} else {
				fields[name] = s
			}
		}
		out := Object(fields)
		out.Args = mergeArgs(a.Args, b.Args)
		return out
	case KindLiteral:
		return Literal(append(append([]string{}, a.Literals...), b.Literals...)...)
	case KindArray:
		out := Array(Merge(a.Elem, b.Elem))
		out.Args = mergeArgs(a.Args, b.Args)
		return out
	case KindScalar:
		if a.Scalar == b.Scalar {
			return a
		}
		return b
	default:
		return b
	}
}

func mergeArgs(a, b map[string]*Shape) map[string]*Shape {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(map[string]*Shape, len(a)+len(b))
	for name, s := range a {
		out[name] = s
	}
	for name, s := range b {
		if prev, ok := out[name]; ok {
			out[name] = Merge(prev, s)
		} else {
			out[name] = s
		}
	}
	return out
}
