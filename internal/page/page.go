// Package page resolves the response envelope for read-style actions based
// on the supplied paging parameter.
package page

import (
	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/selection"
	"github.com/shapecast/shapecast/internal/shape"
	"github.com/shapecast/shapecast/internal/validate"
)

// Envelope wraps a base element shape in a pagination envelope. A nil
// Envelope marks the flavor as unsupported by the hosting action.
type Envelope func(base *shape.Shape) *shape.Shape

// OffsetEnvelope is the offset/limit flavor: results plus a total count
// (null when counting was not requested) and a has-more flag.
func OffsetEnvelope(base *shape.Shape) *shape.Shape {
	return shape.Object(map[string]*shape.Shape{
		"results": shape.Array(base),
		"count":   shape.Nullable(shape.Scalar(entity.ScalarInteger)),
		"hasMore": shape.Scalar(entity.ScalarBoolean),
	})
}

// KeysetEnvelope is the cursor flavor: results plus the bounding cursors
// and a has-more flag.
func KeysetEnvelope(base *shape.Shape) *shape.Shape {
	return shape.Object(map[string]*shape.Shape{
		"results": shape.Array(base),
		"after":   shape.Nullable(shape.Scalar(entity.ScalarString)),
		"before":  shape.Nullable(shape.Scalar(entity.ScalarString)),
		"hasMore": shape.Scalar(entity.ScalarBoolean),
	})
}

var (
	offsetKeys = []string{"limit", "offset", "count"}
	keysetKeys = []string{"after", "before"}
)

// Resolve determines the response shape for a read action. With no page
// parameter the result is the bare collection. Otherwise the parameter is
// matched structurally against the offset descriptor (limit/offset/count
// keys) and the keyset descriptor (after/before keys); an action supporting
// only one flavor takes that flavor's envelope unconditionally. A parameter
// matching neither or both flavors of a mixed-support action is a
// diagnostic condition, never silently resolved.
func Resolve(page map[string]any, base *shape.Shape, offset, keyset Envelope) (*shape.Shape, *validate.Error) {
	if page == nil {
		return shape.Array(base), nil
	}

	switch {
	case offset != nil && keyset == nil:
		return offset(base), nil
	case keyset != nil && offset == nil:
		return keyset(base), nil
	case offset == nil && keyset == nil:
		return nil, pageError()
	}

	offsetMatch := hasAny(page, offsetKeys)
	keysetMatch := hasAny(page, keysetKeys)
	switch {
	case offsetMatch && keysetMatch:
		return nil, pageError()
	case offsetMatch:
		return offset(base), nil
	case keysetMatch:
		return keyset(base), nil
	default:
		return nil, pageError()
	}
}

func pageError() *validate.Error {
	return &validate.Error{
		Kind: validate.AmbiguousOrInvalidPagination,
		Path: selection.Path{"page"},
	}
}

func hasAny(page map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := page[k]; ok {
			return true
		}
	}
	return false
}
