// Package manifest loads the entity graph the engine works over. The
// external reflection collaborator introspects its resource definitions and
// writes one JSON manifest per package; Build folds them into a frozen
// entity registry plus the read-action descriptors used for pagination.
package manifest

import "encoding/json"

// Document is one manifest file.
type Document struct {
	Package  string                 `json:"package"`
	Entities map[string]*EntityDef  `json:"entities"`
	Actions  map[string]*ActionDef  `json:"actions,omitempty"`
}

// EntityDef describes one typed entity.
type EntityDef struct {
	Kind        string               `json:"kind"` // resource | typed_map | union
	Description string               `json:"description,omitempty"`
	Primitives  map[string]string    `json:"primitives,omitempty"`
	Fields      map[string]*FieldDef `json:"fields,omitempty"`

	// Union only.
	TagField string            `json:"tagField,omitempty"`
	Variants map[string]string `json:"variants,omitempty"`
}

// FieldDef describes one complex field.
type FieldDef struct {
	Kind     string              `json:"kind"` // relationship | calculation | nested_map | union
	Target   string              `json:"target,omitempty"`
	Scalar   string              `json:"scalar,omitempty"`
	Args     map[string]*ArgDef  `json:"args,omitempty"`
	Array    bool                `json:"array,omitempty"`
	Nullable bool                `json:"nullable,omitempty"`
}

// ArgDef describes one calculation argument.
type ArgDef struct {
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Default  any    `json:"default,omitempty"`
}

// ActionDef describes one read-style action over an entity.
type ActionDef struct {
	Entity     string         `json:"entity"`
	Pagination *PaginationDef `json:"pagination,omitempty"`
}

// PaginationDef flags the pagination flavors an action supports.
type PaginationDef struct {
	Offset bool `json:"offset,omitempty"`
	Keyset bool `json:"keyset,omitempty"`
}

// Decode parses one manifest document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
