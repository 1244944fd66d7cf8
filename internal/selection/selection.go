// Package selection models the client-supplied selection tree: the nested
// structure of primitive field names and complex-field sub-selections that
// drives validation and projection.
package selection

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// List is one selection level: an ordered list of selection elements.
type List []*Node

// Node is a single selection element. Exactly one of Prim and Complex is
// set: a bare string picks a primitive field, an object picks one or more
// complex fields with sub-selection values.
type Node struct {
	Prim    string
	Complex map[string]*Value
}

// Value is the sub-selection attached to one complex-field key. A plain
// list covers relationships, nested maps and union fields; the calculation
// object form additionally carries an args payload.
type Value struct {
	List    List
	Args    map[string]any
	HasArgs bool
}

// Keys returns the node's complex-field keys in lexical order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Complex))
	for k := range n.Complex {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON decodes a selection list from its wire form: a JSON array
// whose elements are strings (primitive picks) or objects (complex picks).
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("selection must be an array: %w", err)
	}
	out := make(List, 0, len(raw))
	for i, elem := range raw {
		node := new(Node)
		if err := json.Unmarshal(elem, node); err != nil {
			return fmt.Errorf("selection[%d]: %w", i, err)
		}
		out = append(out, node)
	}
	*l = out
	return nil
}

// MarshalJSON encodes the list back to its wire form.
func (l List) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(l))
	for _, n := range l {
		if n.Prim != "" {
			out = append(out, n.Prim)
			continue
		}
		obj := make(map[string]any, len(n.Complex))
		for k, v := range n.Complex {
			obj[k] = v
		}
		out = append(out, obj)
	}
	return json.Marshal(out)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &n.Prim)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("element must be a string or an object")
	}
	if len(obj) == 0 {
		return fmt.Errorf("element object must name at least one field")
	}
	n.Complex = make(map[string]*Value, len(obj))
	for key, rawVal := range obj {
		val := new(Value)
		if err := json.Unmarshal(rawVal, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		n.Complex[key] = val
	}
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &v.List)
	}
	var obj struct {
		Args   map[string]any  `json:"args"`
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("value must be an array or an {args, fields} object")
	}
	// Reject stray keys so typos fail loudly instead of selecting nothing.
	var keys map[string]json.RawMessage
	_ = json.Unmarshal(data, &keys)
	for k := range keys {
		if k != "args" && k != "fields" {
			return fmt.Errorf("unexpected key %q in selection value", k)
		}
	}
	v.Args = obj.Args
	v.HasArgs = obj.Args != nil
	if len(obj.Fields) > 0 {
		if err := json.Unmarshal(obj.Fields, &v.List); err != nil {
			return fmt.Errorf("fields: %w", err)
		}
	}
	return nil
}

func (v *Value) MarshalJSON() ([]byte, error) {
	if !v.HasArgs {
		return json.Marshal(v.List)
	}
	obj := map[string]any{"args": v.Args}
	if len(v.List) > 0 {
		obj["fields"] = v.List
	}
	return json.Marshal(obj)
}

// Path locates a node inside a selection tree. Elements are field names
// (string) or list indices (int).
type Path []any

// Child returns a copy of p with elem appended.
func (p Path) Child(elem any) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}

func (p Path) String() string {
	result := ""
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += "[" + strconv.Itoa(v) + "]"
		default:
			if i > 0 {
				result += "."
			}
			result += fmt.Sprint(v)
		}
	}
	return result
}
