package entity

import "sort"

// Entity is a named schema node: a resource, an embedded typed map, or a
// tagged union. Resources and typed maps carry primitive and complex fields;
// unions carry a tag field and a set of variants keyed by tag value.
type Entity struct {
	Name        string
	Kind        Kind
	Description string

	// Primitives maps primitive field names to their scalar types.
	// Used by RESOURCE and TYPED_MAP entities.
	Primitives map[string]ScalarType

	// Complex maps complex field names to their specs.
	// Used by RESOURCE and TYPED_MAP entities. Keys are disjoint from
	// Primitives on the same entity.
	Complex map[string]*FieldSpec

	// TagField is the discriminant field name of a UNION entity.
	TagField string

	// Variants maps declared tag values to variant entity names.
	// Used by UNION entities. Targets are resolved through the registry,
	// which keeps cyclic graphs representable.
	Variants map[string]string
}

// Kind identifies the category of a schema node.
type Kind string

const (
	KindResource Kind = "RESOURCE"
	KindTypedMap Kind = "TYPED_MAP"
	KindUnion    Kind = "UNION"
)

// HasPrimitive reports whether name is a selectable primitive on the entity.
// For unions the only primitive is the tag field.
func (e *Entity) HasPrimitive(name string) bool {
	if e.Kind == KindUnion {
		return name == e.TagField
	}
	_, ok := e.Primitives[name]
	return ok
}

// Field returns the complex field spec for name, or nil.
func (e *Entity) Field(name string) *FieldSpec {
	return e.Complex[name]
}

// IsFlat reports whether the entity has no complex fields, i.e. a selection
// against it bottoms out in primitive picks.
func (e *Entity) IsFlat() bool { return len(e.Complex) == 0 }

// PrimitiveNames returns the primitive field names in lexical order.
func (e *Entity) PrimitiveNames() []string {
	if e.Kind == KindUnion {
		return []string{e.TagField}
	}
	names := make([]string, 0, len(e.Primitives))
	for name := range e.Primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComplexNames returns the complex field names in lexical order.
func (e *Entity) ComplexNames() []string {
	names := make([]string, 0, len(e.Complex))
	for name := range e.Complex {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantTags returns a union's declared tag values in lexical order.
func (e *Entity) VariantTags() []string {
	tags := make([]string, 0, len(e.Variants))
	for tag := range e.Variants {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// FieldSpec describes one complex field on a resource or typed map.
type FieldSpec struct {
	Name string
	Kind FieldKind

	// Target names the entity the field points at: the related resource for
	// RELATIONSHIP, the typed map for NESTED_MAP, the union for UNION, or
	// the return entity for an entity-returning CALCULATION. Empty for
	// scalar-returning calculations.
	Target string

	// Scalar is the return type of a scalar-returning CALCULATION.
	Scalar ScalarType

	// Args declares the calculation's argument schema, keyed by name.
	Args map[string]*ArgSpec

	Array    bool
	Nullable bool
}

// FieldKind identifies the category of a complex field.
type FieldKind string

const (
	FieldRelationship FieldKind = "RELATIONSHIP"
	FieldCalculation  FieldKind = "CALCULATION"
	FieldNestedMap    FieldKind = "NESTED_MAP"
	FieldUnion        FieldKind = "UNION"
)

// RequiresArgs reports whether the field declares at least one required
// calculation argument.
func (f *FieldSpec) RequiresArgs() bool {
	for _, a := range f.Args {
		if a.Required {
			return true
		}
	}
	return false
}

// ArgNames returns the declared argument names in lexical order.
func (f *FieldSpec) ArgNames() []string {
	names := make([]string, 0, len(f.Args))
	for name := range f.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArgSpec declares one calculation argument.
type ArgSpec struct {
	Name     string
	Type     ScalarType
	Required bool
	Default  any
}
