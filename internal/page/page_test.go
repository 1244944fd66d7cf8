package page

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/shape"
	"github.com/shapecast/shapecast/internal/validate"
)

func baseShape() *shape.Shape {
	return shape.Object(map[string]*shape.Shape{
		"id": shape.Scalar(entity.ScalarID),
	})
}

func TestResolveNoPageIsBareCollection(t *testing.T) {
	got, err := Resolve(nil, baseShape(), OffsetEnvelope, KeysetEnvelope)
	require.Nil(t, err)
	if diff := cmp.Diff(shape.Array(baseShape()), got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSingleFlavorIsUnconditional(t *testing.T) {
	// An offset-only action takes the offset envelope even for a parameter
	// that names no offset key.
	got, err := Resolve(map[string]any{"anything": 1}, baseShape(), OffsetEnvelope, nil)
	require.Nil(t, err)
	require.NotNil(t, got.Fields["count"])

	got, err = Resolve(map[string]any{"anything": 1}, baseShape(), nil, KeysetEnvelope)
	require.Nil(t, err)
	require.NotNil(t, got.Fields["after"])
}

func TestResolveMixedSupportByKeys(t *testing.T) {
	cases := []struct {
		name string
		page map[string]any
		want string // envelope-discriminating field
	}{
		{"limit picks offset", map[string]any{"limit": 10}, "count"},
		{"offset picks offset", map[string]any{"offset": 20}, "count"},
		{"count picks offset", map[string]any{"count": true}, "count"},
		{"after picks keyset", map[string]any{"after": "c1"}, "after"},
		{"before picks keyset", map[string]any{"before": "c2"}, "before"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.page, baseShape(), OffsetEnvelope, KeysetEnvelope)
			require.Nil(t, err)
			require.NotNil(t, got.Fields[tc.want], "expected %s in envelope", tc.want)
			require.NotNil(t, got.Fields["results"])
			require.NotNil(t, got.Fields["hasMore"])
		})
	}
}

func TestResolveAmbiguousOrInvalid(t *testing.T) {
	cases := []struct {
		name string
		page map[string]any
	}{
		{"both flavors named", map[string]any{"limit": 10, "after": "c1"}},
		{"neither flavor named", map[string]any{"flavor": "?"}},
		{"empty parameter", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.page, baseShape(), OffsetEnvelope, KeysetEnvelope)
			require.Nil(t, got)
			require.NotNil(t, err)
			require.Equal(t, validate.AmbiguousOrInvalidPagination, err.Kind)
			require.Equal(t, "page", err.Path.String())
		})
	}
}

func TestResolvePageWithoutSupport(t *testing.T) {
	got, err := Resolve(map[string]any{"limit": 10}, baseShape(), nil, nil)
	require.Nil(t, got)
	require.NotNil(t, err)
	require.Equal(t, validate.AmbiguousOrInvalidPagination, err.Kind)
}

func TestOffsetEnvelopeShape(t *testing.T) {
	got := OffsetEnvelope(baseShape())
	want := shape.Object(map[string]*shape.Shape{
		"results": shape.Array(baseShape()),
		"count":   shape.Nullable(shape.Scalar(entity.ScalarInteger)),
		"hasMore": shape.Scalar(entity.ScalarBoolean),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestKeysetEnvelopeShape(t *testing.T) {
	got := KeysetEnvelope(baseShape())
	want := shape.Object(map[string]*shape.Shape{
		"results": shape.Array(baseShape()),
		"after":   shape.Nullable(shape.Scalar(entity.ScalarString)),
		"before":  shape.Nullable(shape.Scalar(entity.ScalarString)),
		"hasMore": shape.Scalar(entity.ScalarBoolean),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}
