package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/shapecast/shapecast/internal/entity"
)

const blogManifest = `{
	"package": "blog",
	"entities": {
		"Post": {
			"kind": "resource",
			"primitives": {"id": "ID", "title": "String", "views": "Integer"},
			"fields": {
				"author": {"kind": "relationship", "target": "User", "nullable": true},
				"attachment": {"kind": "union", "target": "Attachment", "nullable": true},
				"meta": {"kind": "nested_map", "target": "Metadata", "array": true},
				"readTime": {
					"kind": "calculation",
					"scalar": "Integer",
					"args": {
						"wpm": {"type": "Integer", "required": true},
						"round": {"type": "Boolean"}
					}
				}
			}
		},
		"User": {
			"kind": "resource",
			"primitives": {"id": "ID", "name": "String"},
			"fields": {
				"posts": {"kind": "relationship", "target": "Post", "array": true}
			}
		},
		"Attachment": {
			"kind": "union",
			"tagField": "type",
			"variants": {"text": "TextAttachment", "image": "ImageAttachment"}
		},
		"TextAttachment": {"kind": "resource", "primitives": {"body": "String"}},
		"ImageAttachment": {"kind": "resource", "primitives": {"url": "String", "width": "Integer"}},
		"Metadata": {"kind": "typed_map", "primitives": {"a": "String", "b": "Integer", "c": "Boolean"}}
	},
	"actions": {
		"listPosts": {"entity": "Post", "pagination": {"offset": true, "keyset": true}},
		"searchPosts": {"entity": "Post", "pagination": {"keyset": true}},
		"getPost": {"entity": "Post"}
	}
}`

func buildFrom(t *testing.T, manifests ...InMemoryManifest) (*Graph, error) {
	t.Helper()
	disc := NewInMemoryDiscovery(manifests)
	return Build(context.Background(), disc)
}

func requireViolations(t *testing.T, err error, substrings ...string) {
	t.Helper()
	require.Error(t, err)
	var verr ValidationError
	require.True(t, errors.As(err, &verr), "want ValidationError, got %T", err)
	for _, substr := range substrings {
		require.Contains(t, verr.Error(), substr)
	}
}

func TestBuildBlogGraph(t *testing.T) {
	graph, err := buildFrom(t, InMemoryManifest{Name: "blog", Content: blogManifest})
	require.NoError(t, err)

	require.Equal(t, 6, graph.Registry.Len())

	post := graph.Registry.Resolve("Post")
	require.Equal(t, entity.KindResource, post.Kind)
	require.Equal(t, entity.ScalarID, post.Primitives["id"])

	author := post.Field("author")
	require.NotNil(t, author)
	require.Equal(t, entity.FieldRelationship, author.Kind)
	require.True(t, author.Nullable)

	readTime := post.Field("readTime")
	require.NotNil(t, readTime)
	require.Equal(t, entity.FieldCalculation, readTime.Kind)
	require.Equal(t, entity.ScalarInteger, readTime.Scalar)
	require.True(t, readTime.RequiresArgs())

	union := graph.Registry.Resolve("Attachment")
	require.Equal(t, entity.KindUnion, union.Kind)
	require.Equal(t, "type", union.TagField)
	if diff := cmp.Diff([]string{"image", "text"}, union.VariantTags()); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}

	want := map[string]*Action{
		"listPosts":   {Name: "listPosts", Entity: "Post", Offset: true, Keyset: true},
		"searchPosts": {Name: "searchPosts", Entity: "Post", Keyset: true},
		"getPost":     {Name: "getPost", Entity: "Post"},
	}
	if diff := cmp.Diff(want, graph.Actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	// A clean build freezes the registry.
	require.Error(t, graph.Registry.Register(&entity.Entity{Name: "Late", Kind: entity.KindResource}))
}

func TestBuildInvalidJSON(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "bad", Content: `{not json`})
	requireViolations(t, err, `manifest "bad"`)
}

func TestBuildUnknownEntityKind(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {"Thing": {"kind": "gadget"}}
	}`})
	requireViolations(t, err, `unknown kind "gadget"`)
}

func TestBuildUnknownScalar(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {"Thing": {"kind": "resource", "primitives": {"when": "Date"}}}
	}`})
	requireViolations(t, err, `unknown scalar type "Date"`)
}

func TestBuildDanglingReference(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"Post": {
				"kind": "resource",
				"primitives": {"id": "ID"},
				"fields": {"author": {"kind": "relationship", "target": "User"}}
			}
		}
	}`})
	requireViolations(t, err, `dangling reference to "User"`)
}

func TestBuildTargetKindMismatch(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"Post": {
				"kind": "resource",
				"primitives": {"id": "ID"},
				"fields": {"meta": {"kind": "nested_map", "target": "User"}}
			},
			"User": {"kind": "resource", "primitives": {"id": "ID"}}
		}
	}`})
	requireViolations(t, err, `not a typed map`)
}

func TestBuildUnionVariantCannotBeUnion(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"Outer": {"kind": "union", "tagField": "type", "variants": {"inner": "Inner"}},
			"Inner": {"kind": "union", "tagField": "type", "variants": {"leaf": "Leaf"}},
			"Leaf": {"kind": "resource", "primitives": {"id": "ID"}}
		}
	}`})
	requireViolations(t, err, `variants cannot be unions`)
}

func TestBuildUnionRequiresTagAndVariants(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"A": {"kind": "union", "variants": {"x": "X"}},
			"B": {"kind": "union", "tagField": "type"},
			"X": {"kind": "resource", "primitives": {"id": "ID"}}
		}
	}`})
	requireViolations(t, err, `tagField is required`, `at least one variant is required`)
}

func TestBuildCalculationTargetXorScalar(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"Post": {
				"kind": "resource",
				"primitives": {"id": "ID"},
				"fields": {
					"both": {"kind": "calculation", "target": "Post", "scalar": "Integer"},
					"neither": {"kind": "calculation"}
				}
			}
		}
	}`})
	requireViolations(t, err,
		`calculation "both": exactly one of target and scalar is required`,
		`calculation "neither": exactly one of target and scalar is required`)
}

func TestBuildPrimitiveComplexOverlap(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"Post": {
				"kind": "resource",
				"primitives": {"author": "String"},
				"fields": {"author": {"kind": "relationship", "target": "Post"}}
			}
		}
	}`})
	requireViolations(t, err, `declared both primitive and complex`)
}

func TestBuildDuplicateEntityAcrossManifests(t *testing.T) {
	doc := `{"entities": {"Post": {"kind": "resource", "primitives": {"id": "ID"}}}}`
	_, err := buildFrom(t,
		InMemoryManifest{Name: "a", Content: doc},
		InMemoryManifest{Name: "b", Content: doc},
	)
	requireViolations(t, err, `duplicate entity`)
}

func TestBuildActionDanglingEntity(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {},
		"actions": {"listGhosts": {"entity": "Ghost"}}
	}`})
	requireViolations(t, err, `action "listGhosts": dangling reference to entity "Ghost"`)
}

func TestBuildAccumulatesAllViolations(t *testing.T) {
	_, err := buildFrom(t, InMemoryManifest{Name: "m", Content: `{
		"entities": {
			"A": {"kind": "gadget"},
			"B": {"kind": "resource", "primitives": {"x": "Date"}}
		}
	}`})
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr, 2)
}
