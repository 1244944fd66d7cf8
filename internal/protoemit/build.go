// Package protoemit generates the .proto wire contract for an entity graph.
// The runtime execution engine exchanges projected records with its
// backends as protobuf messages; the descriptors built here are the message
// side of that contract: one message per resource and typed map, a oneof
// per union.
package protoemit

import (
	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/shapecast/shapecast/internal/entity"
)

// Build converts the registry into a single proto file descriptor named
// after pkg.
func Build(reg *entity.Registry, pkg string) (protoreflect.FileDescriptor, error) {
	fb := protobuilder.NewFile(pkg + ".proto")
	fb.SetPackageName(protoreflect.FullName(pkg))
	fb.SetSyntax(protoreflect.Proto3)

	b := &builder{
		registry: reg,
		file:     fb,
		messages: make(map[string]*protobuilder.MessageBuilder),
	}

	// Pass 1: a message builder per entity, so fields can reference
	// messages regardless of declaration order (the graph may be cyclic).
	for _, name := range reg.Names() {
		b.addMessage(reg.Resolve(name))
	}

	// Pass 2: fields.
	for _, name := range reg.Names() {
		ent := reg.Resolve(name)
		if ent.Kind == entity.KindUnion {
			b.addUnionFields(ent)
		} else {
			b.addRecordFields(ent)
		}
	}

	return fb.Build()
}

type builder struct {
	registry *entity.Registry
	file     *protobuilder.FileBuilder
	messages map[string]*protobuilder.MessageBuilder
}

func (b *builder) addMessage(ent *entity.Entity) {
	mb := protobuilder.NewMessage(protoreflect.Name(ent.Name))
	mb.SetComments(comment(ent.Description))
	b.messages[ent.Name] = mb
	b.file.AddMessage(mb)
}

func (b *builder) addRecordFields(ent *entity.Entity) {
	mb := b.messages[ent.Name]
	fieldBuilders := make([]*protobuilder.FieldBuilder, 0, len(ent.Primitives)+len(ent.Complex))

	for _, name := range ent.PrimitiveNames() {
		fb := protobuilder.NewField(fieldName(name), scalarFieldType(ent.Primitives[name]))
		fb.SetOptional()
		mb.AddField(fb)
		fieldBuilders = append(fieldBuilders, fb)
	}

	for _, name := range ent.ComplexNames() {
		fs := ent.Complex[name]
		fb := protobuilder.NewField(fieldName(name), b.fieldType(fs))
		if fs.Array {
			fb.SetRepeated()
		} else {
			fb.SetOptional()
		}
		mb.AddField(fb)
		fieldBuilders = append(fieldBuilders, fb)
	}

	allocateFieldNumbers(fieldBuilders)
}

// addUnionFields models a union as a oneof over its variant messages plus
// the discriminant tag.
func (b *builder) addUnionFields(ent *entity.Entity) {
	mb := b.messages[ent.Name]

	tag := protobuilder.NewField(fieldName(ent.TagField), protobuilder.FieldTypeScalar(protoreflect.StringKind))
	mb.AddField(tag)

	oneOf := protobuilder.NewOneof("value")
	mb.AddOneOf(oneOf)

	fieldBuilders := []*protobuilder.FieldBuilder{tag}
	for _, tagValue := range ent.VariantTags() {
		variant := ent.Variants[tagValue]
		fb := protobuilder.NewField(fieldName(tagValue), protobuilder.FieldTypeMessage(b.messages[variant]))
		oneOf.AddChoice(fb)
		fieldBuilders = append(fieldBuilders, fb)
	}
	allocateFieldNumbers(fieldBuilders)
}

func (b *builder) fieldType(fs *entity.FieldSpec) *protobuilder.FieldType {
	if fs.Kind == entity.FieldCalculation && fs.Target == "" {
		return scalarFieldType(fs.Scalar)
	}
	return protobuilder.FieldTypeMessage(b.messages[fs.Target])
}

func scalarFieldType(t entity.ScalarType) *protobuilder.FieldType {
	return protobuilder.FieldTypeScalar(scalarKinds[t])
}

var scalarKinds = map[entity.ScalarType]protoreflect.Kind{
	entity.ScalarString:    protoreflect.StringKind,
	entity.ScalarInteger:   protoreflect.Int64Kind,
	entity.ScalarFloat:     protoreflect.DoubleKind,
	entity.ScalarBoolean:   protoreflect.BoolKind,
	entity.ScalarID:        protoreflect.StringKind,
	entity.ScalarTimestamp: protoreflect.StringKind,
	entity.ScalarJSON:      protoreflect.StringKind,
}
