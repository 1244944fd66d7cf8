package manifest

import (
	"context"
	"sort"

	"github.com/shapecast/shapecast/internal/entity"
)

// Graph is the built schema: the frozen entity registry plus read-action
// descriptors.
type Graph struct {
	Registry *entity.Registry
	Actions  map[string]*Action
}

// Action is a read-style operation over an entity with its supported
// pagination flavors.
type Action struct {
	Name   string
	Entity string
	Offset bool
	Keyset bool
}

// Build loads every discovered manifest and folds it into a Graph. All
// violations are accumulated and returned together as a ValidationError;
// a non-nil Graph is returned only for a clean build.
func Build(ctx context.Context, disc Discovery) (*Graph, error) {
	metas, err := disc.ListMetadata(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })

	b := &builder{
		registry: entity.NewRegistry(),
		actions:  make(map[string]*Action),
		files:    make(map[string]string),
	}

	for _, meta := range metas {
		data, err := disc.ReadManifest(ctx, meta.Name)
		if err != nil {
			return nil, err
		}
		doc, err := Decode(data)
		if err != nil {
			b.violations = append(b.violations, violationf(meta.FilePath, "manifest %q: %v", meta.Name, err))
			continue
		}
		b.addDocument(meta, doc)
	}

	b.check()

	if len(b.violations) > 0 {
		return nil, ValidationError(b.violations)
	}
	b.registry.Freeze()
	return &Graph{Registry: b.registry, Actions: b.actions}, nil
}

type builder struct {
	registry   *entity.Registry
	actions    map[string]*Action
	files      map[string]string // entity name -> source file, for diagnostics
	violations []*Violation
}

func (b *builder) addDocument(meta *Metadata, doc *Document) {
	names := make([]string, 0, len(doc.Entities))
	for name := range doc.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ent, ok := b.buildEntity(meta.FilePath, name, doc.Entities[name])
		if !ok {
			continue
		}
		if err := b.registry.Register(ent); err != nil {
			b.violations = append(b.violations, violationf(meta.FilePath, "%v", err))
			continue
		}
		b.files[name] = meta.FilePath
	}

	actionNames := make([]string, 0, len(doc.Actions))
	for name := range doc.Actions {
		actionNames = append(actionNames, name)
	}
	sort.Strings(actionNames)
	for _, name := range actionNames {
		def := doc.Actions[name]
		if _, ok := b.actions[name]; ok {
			b.violations = append(b.violations, violationf(meta.FilePath, "action %q: duplicate action", name))
			continue
		}
		act := &Action{Name: name, Entity: def.Entity}
		if def.Pagination != nil {
			act.Offset = def.Pagination.Offset
			act.Keyset = def.Pagination.Keyset
		}
		b.actions[name] = act
		b.files["action:"+name] = meta.FilePath
	}
}

func (b *builder) buildEntity(file, name string, def *EntityDef) (*entity.Entity, bool) {
	ent := &entity.Entity{Name: name, Description: def.Description}

	switch def.Kind {
	case "resource":
		ent.Kind = entity.KindResource
	case "typed_map":
		ent.Kind = entity.KindTypedMap
	case "union":
		ent.Kind = entity.KindUnion
	default:
		b.violations = append(b.violations, violationf(file, "entity %q: unknown kind %q", name, def.Kind))
		return nil, false
	}

	if ent.Kind == entity.KindUnion {
		if def.TagField == "" {
			b.violations = append(b.violations, violationf(file, "union %q: tagField is required", name))
			return nil, false
		}
		if len(def.Variants) == 0 {
			b.violations = append(b.violations, violationf(file, "union %q: at least one variant is required", name))
			return nil, false
		}
		ent.TagField = def.TagField
		ent.Variants = make(map[string]string, len(def.Variants))
		for tag, target := range def.Variants {
			ent.Variants[tag] = target
		}
		return ent, true
	}

	ent.Primitives = make(map[string]entity.ScalarType, len(def.Primitives))
	for fieldName, scalarName := range def.Primitives {
		scalar := entity.ScalarType(scalarName)
		if !entity.KnownScalar(scalar) {
			b.violations = append(b.violations, violationf(file, "entity %q: primitive %q: unknown scalar type %q", name, fieldName, scalarName))
			continue
		}
		ent.Primitives[fieldName] = scalar
	}

	ent.Complex = make(map[string]*entity.FieldSpec, len(def.Fields))
	fieldNames := make([]string, 0, len(def.Fields))
	for fieldName := range def.Fields {
		fieldNames = append(fieldNames, fieldName)
	}
	sort.Strings(fieldNames)
	for _, fieldName := range fieldNames {
		if _, ok := ent.Primitives[fieldName]; ok {
			b.violations = append(b.violations, violationf(file, "entity %q: field %q: declared both primitive and complex", name, fieldName))
			continue
		}
		fs, ok := b.buildField(file, name, fieldName, def.Fields[fieldName])
		if !ok {
			continue
		}
		ent.Complex[fieldName] = fs
	}
	return ent, true
}

func (b *builder) buildField(file, entName, fieldName string, def *FieldDef) (*entity.FieldSpec, bool) {
	fs := &entity.FieldSpec{
		Name:     fieldName,
		Target:   def.Target,
		Array:    def.Array,
		Nullable: def.Nullable,
	}
	switch def.Kind {
	case "relationship":
		fs.Kind = entity.FieldRelationship
	case "calculation":
		fs.Kind = entity.FieldCalculation
	case "nested_map":
		fs.Kind = entity.FieldNestedMap
	case "union":
		fs.Kind = entity.FieldUnion
	default:
		b.violations = append(b.violations, violationf(file, "entity %q: field %q: unknown field kind %q", entName, fieldName, def.Kind))
		return nil, false
	}

	if fs.Kind == entity.FieldCalculation {
		if (def.Target == "") == (def.Scalar == "") {
			b.violations = append(b.violations, violationf(file, "entity %q: calculation %q: exactly one of target and scalar is required", entName, fieldName))
			return nil, false
		}
		if def.Scalar != "" {
			scalar := entity.ScalarType(def.Scalar)
			if !entity.KnownScalar(scalar) {
				b.violations = append(b.violations, violationf(file, "entity %q: calculation %q: unknown scalar type %q", entName, fieldName, def.Scalar))
				return nil, false
			}
			fs.Scalar = scalar
		}
		if len(def.Args) > 0 {
			fs.Args = make(map[string]*entity.ArgSpec, len(def.Args))
			for argName, argDef := range def.Args {
				argType := entity.ScalarType(argDef.Type)
				if !entity.KnownScalar(argType) {
					b.violations = append(b.violations, violationf(file, "entity %q: calculation %q: arg %q: unknown scalar type %q", entName, fieldName, argName, argDef.Type))
					continue
				}
				fs.Args[argName] = &entity.ArgSpec{
					Name:     argName,
					Type:     argType,
					Required: argDef.Required,
					Default:  argDef.Default,
				}
			}
		}
	} else if def.Target == "" {
		b.violations = append(b.violations, violationf(file, "entity %q: field %q: target is required", entName, fieldName))
		return nil, false
	}
	return fs, true
}

// check runs the cross-reference pass once all entities are registered.
func (b *builder) check() {
	for _, name := range b.registry.Names() {
		ent, _ := b.registry.Lookup(name)
		file := b.files[name]

		if ent.Kind == entity.KindUnion {
			for _, tag := range ent.VariantTags() {
				target, ok := b.registry.Lookup(ent.Variants[tag])
				if !ok {
					b.violations = append(b.violations, violationf(file, "union %q: variant %q: dangling reference to %q", name, tag, ent.Variants[tag]))
					continue
				}
				if target.Kind == entity.KindUnion {
					b.violations = append(b.violations, violationf(file, "union %q: variant %q: variants cannot be unions", name, tag))
				}
			}
			continue
		}

		for _, fieldName := range ent.ComplexNames() {
			fs := ent.Complex[fieldName]
			if fs.Target == "" {
				continue
			}
			target, ok := b.registry.Lookup(fs.Target)
			if !ok {
				b.violations = append(b.violations, violationf(file, "entity %q: field %q: dangling reference to %q", name, fieldName, fs.Target))
				continue
			}
			switch fs.Kind {
			case entity.FieldRelationship:
				if target.Kind != entity.KindResource {
					b.violations = append(b.violations, violationf(file, "entity %q: relationship %q: target %q is not a resource", name, fieldName, fs.Target))
				}
			case entity.FieldNestedMap:
				if target.Kind != entity.KindTypedMap {
					b.violations = append(b.violations, violationf(file, "entity %q: nested map %q: target %q is not a typed map", name, fieldName, fs.Target))
				}
			case entity.FieldUnion:
				if target.Kind != entity.KindUnion {
					b.violations = append(b.violations, violationf(file, "entity %q: union field %q: target %q is not a union", name, fieldName, fs.Target))
				}
			}
		}
	}

	actionNames := make([]string, 0, len(b.actions))
	for name := range b.actions {
		actionNames = append(actionNames, name)
	}
	sort.Strings(actionNames)
	for _, name := range actionNames {
		act := b.actions[name]
		file := b.files["action:"+name]
		if _, ok := b.registry.Lookup(act.Entity); !ok {
			b.violations = append(b.violations, violationf(file, "action %q: dangling reference to entity %q", name, act.Entity))
		}
	}
}
