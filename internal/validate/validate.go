// Package validate checks client selection trees against the entity graph.
// Validation fails closed: the first invalid node short-circuits with a
// path-qualified error and no partial result is produced.
package validate

import (
	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/selection"
)

// DefaultMaxDepth bounds the selection tree depth accepted from clients.
const DefaultMaxDepth = 64

// Validator validates selections against entities resolved through a
// registry. The zero MaxDepth means DefaultMaxDepth.
type Validator struct {
	Registry *entity.Registry
	MaxDepth int
}

// Validate checks sel against ent using default options.
func Validate(reg *entity.Registry, ent *entity.Entity, sel selection.List) *Error {
	return (&Validator{Registry: reg}).Validate(ent, sel)
}

// Validate checks sel against ent. A nil return means the selection is
// valid and safe to project.
func (v *Validator) Validate(ent *entity.Entity, sel selection.List) *Error {
	maxDepth := v.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return v.walk(ent, sel, selection.Path{}, 1, maxDepth)
}

func (v *Validator) walk(ent *entity.Entity, sel selection.List, path selection.Path, depth, maxDepth int) *Error {
	if depth > maxDepth {
		return &Error{Kind: RecursionDepthExceeded, Path: path}
	}
	for i, node := range sel {
		if node.Prim != "" {
			if !ent.HasPrimitive(node.Prim) {
				return &Error{Kind: UnknownPrimitiveField, Path: path.Child(i), Name: node.Prim}
			}
			continue
		}
		if len(node.Complex) == 0 {
			return &Error{Kind: MalformedSelection, Path: path.Child(i)}
		}
		for _, key := range node.Keys() {
			if err := v.walkField(ent, key, node.Complex[key], path.Child(key), depth, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Validator) walkField(ent *entity.Entity, key string, val *selection.Value, path selection.Path, depth, maxDepth int) *Error {
	if ent.Kind == entity.KindUnion {
		return v.walkVariant(ent, key, val, path, depth, maxDepth)
	}

	fs := ent.Field(key)
	if fs == nil {
		return &Error{Kind: UnknownComplexField, Path: path, Name: key}
	}

	switch fs.Kind {
	case entity.FieldRelationship:
		if val.HasArgs {
			return &Error{Kind: MalformedSelection, Path: path, Name: key}
		}
		return v.walk(v.Registry.Resolve(fs.Target), val.List, path, depth+1, maxDepth)

	case entity.FieldNestedMap:
		if val.HasArgs {
			return &Error{Kind: MalformedSelection, Path: path, Name: key}
		}
		target := v.Registry.Resolve(fs.Target)
		if target.IsFlat() {
			return v.walkFlat(target, val.List, path)
		}
		return v.walk(target, val.List, path, depth+1, maxDepth)

	case entity.FieldUnion:
		if val.HasArgs {
			return &Error{Kind: MalformedSelection, Path: path, Name: key}
		}
		return v.walk(v.Registry.Resolve(fs.Target), val.List, path, depth+1, maxDepth)

	case entity.FieldCalculation:
		return v.walkCalculation(fs, val, path, depth, maxDepth)
	}
	return &Error{Kind: MalformedSelection, Path: path, Name: key}
}

// walkFlat validates a selection against a flat embedded record: the value
// is a leaf projection naming primitives only, never re-entered recursively.
func (v *Validator) walkFlat(target *entity.Entity, sel selection.List, path selection.Path) *Error {
	for i, node := range sel {
		if node.Prim == "" {
			return &Error{Kind: MalformedSelection, Path: path.Child(i)}
		}
		if !target.HasPrimitive(node.Prim) {
			return &Error{Kind: UnknownPrimitiveField, Path: path.Child(i), Name: node.Prim}
		}
	}
	return nil
}

// walkVariant validates one element of a union sub-selection: either the
// tag field as a bare pick (handled by walk) or a variant object keyed by a
// declared tag.
func (v *Validator) walkVariant(union *entity.Entity, tag string, val *selection.Value, path selection.Path, depth, maxDepth int) *Error {
	variantName, ok := union.Variants[tag]
	if !ok {
		return &Error{Kind: InvalidUnionVariant, Path: path, Name: tag}
	}
	if val.HasArgs {
		return &Error{Kind: MalformedSelection, Path: path, Name: tag}
	}
	return v.walk(v.Registry.Resolve(variantName), val.List, path, depth+1, maxDepth)
}

func (v *Validator) walkCalculation(fs *entity.FieldSpec, val *selection.Value, path selection.Path, depth, maxDepth int) *Error {
	if len(fs.Args) > 0 {
		if !val.HasArgs && fs.RequiresArgs() {
			return &Error{Kind: MissingCalculationArgs, Path: path, Name: fs.Name}
		}
		for name := range val.Args {
			if _, ok := fs.Args[name]; !ok {
				return &Error{Kind: MalformedSelection, Path: path.Child(name), Name: name}
			}
		}
		for _, name := range fs.ArgNames() {
			arg := fs.Args[name]
			if !arg.Required {
				continue
			}
			if _, ok := val.Args[name]; !ok {
				return &Error{Kind: MissingCalculationArgs, Path: path, Name: fs.Name}
			}
		}
	} else if val.HasArgs {
		return &Error{Kind: MalformedSelection, Path: path, Name: fs.Name}
	}

	if fs.Target != "" {
		return v.walk(v.Registry.Resolve(fs.Target), val.List, path, depth+1, maxDepth)
	}
	if len(val.List) > 0 {
		// Scalar-returning calculations carry no sub-selection.
		return &Error{Kind: MalformedSelection, Path: path, Name: fs.Name}
	}
	return nil
}
