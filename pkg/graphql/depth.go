package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth allows every field of the schema to be selected.
const DefaultMaxDepth = 5

// calculateQueryDepth returns the deepest field nesting across all operations.
// A root field with a selection set counts as depth 2.
func calculateQueryDepth(document *ast.Document) int {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range document.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, def := range document.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			if d := selectionSetDepth(op.SelectionSet, 1, fragments, map[string]bool{}); d > maxDepth {
				maxDepth = d
			}
		}
	}
	return maxDepth
}

func selectionSetDepth(set *ast.SelectionSet, depth int, fragments map[string]*ast.FragmentDefinition, visiting map[string]bool) int {
	if set == nil {
		return depth
	}
	maxDepth := depth
	for _, selection := range set.Selections {
		d := depth
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			d = selectionSetDepth(sel.SelectionSet, depth+1, fragments, visiting)
		case *ast.InlineFragment:
			d = selectionSetDepth(sel.SelectionSet, depth, fragments, visiting)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := fragments[name]
			if !ok || visiting[name] {
				continue
			}
			visiting[name] = true
			d = selectionSetDepth(frag.SelectionSet, depth, fragments, visiting)
			delete(visiting, name)
		}
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// ValidateQueryDepth parses query and checks its depth against maxDepth.
func ValidateQueryDepth(query string, maxDepth int) error {
	document, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	if depth := calculateQueryDepth(document); depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}
