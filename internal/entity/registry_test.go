package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{Name: "Post", Kind: KindResource}))
	require.NoError(t, reg.Register(&Entity{Name: "User", Kind: KindResource}))

	err := reg.Register(&Entity{Name: "Post", Kind: KindResource})
	require.Error(t, err, "duplicate registration must fail")

	err = reg.Register(&Entity{Kind: KindResource})
	require.Error(t, err, "empty name must fail")

	reg.Freeze()
	err = reg.Register(&Entity{Name: "Late", Kind: KindResource})
	require.Error(t, err, "registration after Freeze must fail")

	got, ok := reg.Lookup("User")
	require.True(t, ok)
	require.Equal(t, "User", got.Name)

	_, ok = reg.Lookup("Nope")
	require.False(t, ok)

	require.Equal(t, 2, reg.Len())
	if diff := cmp.Diff([]string{"Post", "User"}, reg.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryResolveUnknownPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatal("Resolve of unknown entity should panic")
		}
	}()
	reg.Resolve("Ghost")
}

func TestEntityPrimitives(t *testing.T) {
	ent := &Entity{
		Name: "Post",
		Kind: KindResource,
		Primitives: map[string]ScalarType{
			"id":    ScalarID,
			"title": ScalarString,
		},
		Complex: map[string]*FieldSpec{
			"author": {Name: "author", Kind: FieldRelationship, Target: "User"},
		},
	}
	require.True(t, ent.HasPrimitive("id"))
	require.False(t, ent.HasPrimitive("author"), "complex fields are not primitives")
	require.False(t, ent.HasPrimitive("bogus"))
	require.False(t, ent.IsFlat())
	if diff := cmp.Diff([]string{"id", "title"}, ent.PrimitiveNames()); diff != "" {
		t.Errorf("PrimitiveNames mismatch (-want +got):\n%s", diff)
	}
}

func TestUnionTagFieldIsOnlyPrimitive(t *testing.T) {
	union := &Entity{
		Name:     "Attachment",
		Kind:     KindUnion,
		TagField: "type",
		Variants: map[string]string{
			"text":  "TextAttachment",
			"image": "ImageAttachment",
		},
	}
	require.True(t, union.HasPrimitive("type"))
	require.False(t, union.HasPrimitive("text"), "variant tags are complex keys, not primitives")
	if diff := cmp.Diff([]string{"image", "text"}, union.VariantTags()); diff != "" {
		t.Errorf("VariantTags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"type"}, union.PrimitiveNames()); diff != "" {
		t.Errorf("PrimitiveNames mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldSpecArgs(t *testing.T) {
	fs := &FieldSpec{
		Name: "readTime",
		Kind: FieldCalculation,
		Args: map[string]*ArgSpec{
			"wpm":   {Name: "wpm", Type: ScalarInteger, Required: true},
			"round": {Name: "round", Type: ScalarBoolean},
		},
	}
	require.True(t, fs.RequiresArgs())
	if diff := cmp.Diff([]string{"round", "wpm"}, fs.ArgNames()); diff != "" {
		t.Errorf("ArgNames mismatch (-want +got):\n%s", diff)
	}

	optional := &FieldSpec{
		Name: "excerpt",
		Kind: FieldCalculation,
		Args: map[string]*ArgSpec{"length": {Name: "length", Type: ScalarInteger}},
	}
	require.False(t, optional.RequiresArgs())
}
