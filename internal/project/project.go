// Package project computes the output shape of a validated selection
// against an entity. Projection is pure: it reads the frozen registry and
// the selection tree, recursing on selection depth only, so cyclic schema
// graphs cannot cause non-termination.
package project

import (
	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/selection"
	"github.com/shapecast/shapecast/internal/shape"
	"github.com/shapecast/shapecast/internal/validate"
)

// Projector projects selections against entities resolved through a
// registry.
type Projector struct {
	Registry *entity.Registry
	MaxDepth int
}

// DescribeProjection validates sel against ent and, when valid, returns the
// shape the runtime extractor must honor.
func (p *Projector) DescribeProjection(ent *entity.Entity, sel selection.List) (*shape.Shape, *validate.Error) {
	v := &validate.Validator{Registry: p.Registry, MaxDepth: p.MaxDepth}
	if err := v.Validate(ent, sel); err != nil {
		return nil, err
	}
	return p.Project(ent, sel), nil
}

// Project computes the shape for a validated selection. The overall shape
// is the key-wise merge of each element's individual contribution.
func (p *Projector) Project(ent *entity.Entity, sel selection.List) *shape.Shape {
	// Base case: flat entities bottom out in primitive picks and never
	// recurse. Without this the recursion has no fixed point for leaves.
	if ent.Kind != entity.KindUnion && ent.IsFlat() {
		return p.projectFlat(ent, sel)
	}

	out := shape.Object(nil)
	for _, node := range sel {
		out = shape.Merge(out, p.projectNode(ent, node))
	}
	return out
}

// projectFlat projects a primitive-only selection: the field-by-field union
// of the selected primitives' scalar types.
func (p *Projector) projectFlat(ent *entity.Entity, sel selection.List) *shape.Shape {
	fields := make(map[string]*shape.Shape, len(sel))
	for _, node := range sel {
		if node.Prim != "" {
			fields[node.Prim] = shape.Scalar(ent.Primitives[node.Prim])
		}
	}
	return shape.Object(fields)
}

func (p *Projector) projectNode(ent *entity.Entity, node *selection.Node) *shape.Shape {
	if node.Prim != "" {
		if ent.Kind == entity.KindUnion {
			return shape.Object(map[string]*shape.Shape{
				ent.TagField: shape.Literal(ent.VariantTags()...),
			})
		}
		return shape.Object(map[string]*shape.Shape{
			node.Prim: shape.Scalar(ent.Primitives[node.Prim]),
		})
	}

	out := shape.Object(nil)
	for _, key := range node.Keys() {
		val := node.Complex[key]
		var contrib *shape.Shape
		if ent.Kind == entity.KindUnion {
			// A variant pick projects the sub-selection against the variant
			// entity, nullable because only one variant is populated per
			// instance. Unselected variants contribute no key at all.
			variant := p.Registry.Resolve(ent.Variants[key])
			contrib = shape.Nullable(p.Project(variant, val.List))
		} else {
			contrib = p.projectField(ent.Field(key), val)
		}
		out = shape.Merge(out, shape.Object(map[string]*shape.Shape{key: contrib}))
	}
	return out
}

func (p *Projector) projectField(fs *entity.FieldSpec, val *selection.Value) *shape.Shape {
	switch fs.Kind {
	case entity.FieldRelationship, entity.FieldUnion:
		return wrap(p.Project(p.Registry.Resolve(fs.Target), val.List), fs)

	case entity.FieldNestedMap:
		target := p.Registry.Resolve(fs.Target)
		if target.IsFlat() {
			// The list picks the same N primitive names from every element;
			// it is not a per-element distinct selection.
			return wrap(p.projectFlat(target, val.List), fs)
		}
		return wrap(p.Project(target, val.List), fs)

	case entity.FieldCalculation:
		var ret *shape.Shape
		if fs.Target != "" {
			ret = p.Project(p.Registry.Resolve(fs.Target), val.List)
		} else {
			ret = shape.Scalar(fs.Scalar)
		}
		wrapped := wrap(ret, fs)
		if len(fs.Args) > 0 {
			wrapped.Args = argShapes(fs)
		}
		return wrapped
	}
	panic("project: unknown field kind " + string(fs.Kind))
}

// argShapes types the calculation's argument contract per its ArgSpec.
func argShapes(fs *entity.FieldSpec) map[string]*shape.Shape {
	out := make(map[string]*shape.Shape, len(fs.Args))
	for name, arg := range fs.Args {
		s := shape.Scalar(arg.Type)
		if !arg.Required {
			s = shape.Nullable(s)
		}
		out[name] = s
	}
	return out
}

// wrap applies the field's cardinality: array fields wrap in an array,
// nullable non-array fields wrap in nullable.
func wrap(s *shape.Shape, fs *entity.FieldSpec) *shape.Shape {
	if fs.Array {
		return shape.Array(s)
	}
	if fs.Nullable {
		return shape.Nullable(s)
	}
	return s
}
