package selection

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseShorthand parses a GraphQL-style selection-set string into a
// selection list. It is an alternative wire syntax for clients that prefer
//
//	{ id title author { name } content { ... on text { body } } }
//
// over the JSON tree. Field arguments become calculation args, inline
// fragments become union variant picks. Fragment spreads, aliases and
// variables are not part of the selection grammar and are rejected.
func ParseShorthand(src string) (List, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, fmt.Errorf("empty selection")
	}
	if !strings.HasPrefix(trimmed, "{") {
		trimmed = "{ " + trimmed + " }"
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "selection", Input: trimmed})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("expected a single selection set")
	}
	return fromSelectionSet(doc.Operations[0].SelectionSet)
}

func fromSelectionSet(set ast.SelectionSet) (List, error) {
	out := make(List, 0, len(set))
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			node, err := fromField(s)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		case *ast.InlineFragment:
			if s.TypeCondition == "" {
				return nil, fmt.Errorf("inline fragment requires a variant tag condition")
			}
			sub, err := fromSelectionSet(s.SelectionSet)
			if err != nil {
				return nil, err
			}
			out = append(out, &Node{Complex: map[string]*Value{
				s.TypeCondition: {List: sub},
			}})
		case *ast.FragmentSpread:
			return nil, fmt.Errorf("fragment spreads are not supported in selections")
		}
	}
	return out, nil
}

func fromField(f *ast.Field) (*Node, error) {
	if f.Alias != "" && f.Alias != f.Name {
		return nil, fmt.Errorf("field %s: aliases are not supported in selections", f.Name)
	}
	if len(f.Arguments) == 0 && len(f.SelectionSet) == 0 {
		return &Node{Prim: f.Name}, nil
	}

	val := new(Value)
	if len(f.Arguments) > 0 {
		args := make(map[string]any, len(f.Arguments))
		for _, arg := range f.Arguments {
			v, err := arg.Value.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("field %s: argument %s: %w", f.Name, arg.Name, err)
			}
			args[arg.Name] = v
		}
		val.Args = args
		val.HasArgs = true
	}
	if len(f.SelectionSet) > 0 {
		sub, err := fromSelectionSet(f.SelectionSet)
		if err != nil {
			return nil, err
		}
		val.List = sub
	}
	return &Node{Complex: map[string]*Value{f.Name: val}}, nil
}
