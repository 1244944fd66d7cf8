package project

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/selection"
	"github.com/shapecast/shapecast/internal/shape"
	"github.com/shapecast/shapecast/internal/validate"
)

func testProjector(t *testing.T) *Projector {
	t.Helper()
	reg := entity.NewRegistry()
	entities := []*entity.Entity{
		{
			Name: "Post",
			Kind: entity.KindResource,
			Primitives: map[string]entity.ScalarType{
				"id":    entity.ScalarID,
				"title": entity.ScalarString,
				"views": entity.ScalarInteger,
			},
			Complex: map[string]*entity.FieldSpec{
				"author": {
					Name: "author", Kind: entity.FieldRelationship,
					Target: "User", Nullable: true,
				},
				"attachment": {
					Name: "attachment", Kind: entity.FieldUnion,
					Target: "Attachment", Nullable: true,
				},
				"meta": {
					Name: "meta", Kind: entity.FieldNestedMap,
					Target: "Metadata", Array: true,
				},
				"readTime": {
					Name: "readTime", Kind: entity.FieldCalculation,
					Scalar: entity.ScalarInteger,
					Args: map[string]*entity.ArgSpec{
						"wpm":   {Name: "wpm", Type: entity.ScalarInteger, Required: true},
						"round": {Name: "round", Type: entity.ScalarBoolean},
					},
				},
				"related": {
					Name: "related", Kind: entity.FieldCalculation,
					Target: "Post", Array: true,
				},
			},
		},
		{
			Name: "User",
			Kind: entity.KindResource,
			Primitives: map[string]entity.ScalarType{
				"id":   entity.ScalarID,
				"name": entity.ScalarString,
			},
			Complex: map[string]*entity.FieldSpec{
				"posts": {
					Name: "posts", Kind: entity.FieldRelationship,
					Target: "Post", Array: true,
				},
			},
		},
		{
			Name:     "Attachment",
			Kind:     entity.KindUnion,
			TagField: "type",
			Variants: map[string]string{
				"text":  "TextAttachment",
				"image": "ImageAttachment",
			},
		},
		{
			Name: "TextAttachment",
			Kind: entity.KindResource,
			Primitives: map[string]entity.ScalarType{
				"body": entity.ScalarString,
			},
		},
		{
			Name: "ImageAttachment",
			Kind: entity.KindResource,
			Primitives: map[string]entity.ScalarType{
				"url":   entity.ScalarString,
				"width": entity.ScalarInteger,
			},
		},
		{
			Name: "Metadata",
			Kind: entity.KindTypedMap,
			Primitives: map[string]entity.ScalarType{
				"a": entity.ScalarString,
				"b": entity.ScalarInteger,
				"c": entity.ScalarBoolean,
			},
		},
	}
	for _, e := range entities {
		require.NoError(t, reg.Register(e))
	}
	reg.Freeze()
	return &Projector{Registry: reg}
}

func mustSelection(t *testing.T, src string) selection.List {
	t.Helper()
	var sel selection.List
	require.NoError(t, json.Unmarshal([]byte(src), &sel))
	return sel
}

func describe(t *testing.T, p *Projector, entityName, src string) *shape.Shape {
	t.Helper()
	ent := p.Registry.Resolve(entityName)
	s, err := p.DescribeProjection(ent, mustSelection(t, src))
	require.Nil(t, err)
	return s
}

func TestProjectPrimitives(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `["id", "views"]`)
	want := shape.Object(map[string]*shape.Shape{
		"id":    shape.Scalar(entity.ScalarID),
		"views": shape.Scalar(entity.ScalarInteger),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectRelationshipNullability(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `["id", {"author": ["name"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"id": shape.Scalar(entity.ScalarID),
		"author": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"name": shape.Scalar(entity.ScalarString),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectArrayRelationship(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "User", `[{"posts": ["id", "title"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"posts": shape.Array(shape.Object(map[string]*shape.Shape{
			"id":    shape.Scalar(entity.ScalarID),
			"title": shape.Scalar(entity.ScalarString),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectUnionTagPick(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"attachment": ["type"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"attachment": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"type": shape.Literal("image", "text"),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectUnionVariantPick(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"attachment": [{"text": ["body"]}]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"attachment": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"text": shape.Nullable(shape.Object(map[string]*shape.Shape{
				"body": shape.Scalar(entity.ScalarString),
			})),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectUnionTagAndVariantsMerge(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"attachment": ["type", {"text": ["body"]}, {"image": ["url"]}]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"attachment": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"type": shape.Literal("image", "text"),
			"text": shape.Nullable(shape.Object(map[string]*shape.Shape{
				"body": shape.Scalar(entity.ScalarString),
			})),
			"image": shape.Nullable(shape.Object(map[string]*shape.Shape{
				"url": shape.Scalar(entity.ScalarString),
			})),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectFlatNestedMap(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"meta": ["a", "c"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"meta": shape.Array(shape.Object(map[string]*shape.Shape{
			"a": shape.Scalar(entity.ScalarString),
			"c": shape.Scalar(entity.ScalarBoolean),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectScalarCalculationWithArgs(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"readTime": {"args": {"wpm": 200}}}]`)

	rt := got.Fields["readTime"]
	require.NotNil(t, rt)
	require.Equal(t, shape.KindScalar, rt.Kind)
	require.Equal(t, entity.ScalarInteger, rt.Scalar)

	wantArgs := map[string]*shape.Shape{
		"wpm":   shape.Scalar(entity.ScalarInteger),
		"round": shape.Nullable(shape.Scalar(entity.ScalarBoolean)),
	}
	if diff := cmp.Diff(wantArgs, rt.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectEntityCalculation(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"related": ["id"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"related": shape.Array(shape.Object(map[string]*shape.Shape{
			"id": shape.Scalar(entity.ScalarID),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectDuplicatePicksMerge(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `["id", "id", {"author": ["id"]}, {"author": ["name"]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"id": shape.Scalar(entity.ScalarID),
		"author": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"id":   shape.Scalar(entity.ScalarID),
			"name": shape.Scalar(entity.ScalarString),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectEmptySelection(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[]`)
	if diff := cmp.Diff(shape.Object(nil), got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	p := testProjector(t)
	src := `["id", {"author": ["name"]}, {"attachment": ["type", {"text": ["body"]}]}, {"meta": ["a"]}]`
	first := describe(t, p, "Post", src)
	second := describe(t, p, "Post", src)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated projection disagreed (-want +got):\n%s", diff)
	}
}

func TestDescribeProjectionRejectsInvalid(t *testing.T) {
	p := testProjector(t)
	ent := p.Registry.Resolve("Post")
	s, err := p.DescribeProjection(ent, mustSelection(t, `["bogus"]`))
	require.Nil(t, s)
	require.NotNil(t, err)
	require.Equal(t, validate.UnknownPrimitiveField, err.Kind)
}

func TestProjectCyclicSelectionTerminates(t *testing.T) {
	p := testProjector(t)
	got := describe(t, p, "Post", `[{"author": [{"posts": [{"author": ["name"]}]}]}]`)
	want := shape.Object(map[string]*shape.Shape{
		"author": shape.Nullable(shape.Object(map[string]*shape.Shape{
			"posts": shape.Array(shape.Object(map[string]*shape.Shape{
				"author": shape.Nullable(shape.Object(map[string]*shape.Shape{
					"name": shape.Scalar(entity.ScalarString),
				})),
			})),
		})),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}
