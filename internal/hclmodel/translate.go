// This file contains the logic for translating HCL type expressions (e.g.
// `string`, `person`, `collection(person)`) into model type descriptors.

package hclmodel

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/zclconf/go-cty/cty"
)

// typeExpr converts an HCL type expression into a model type. Primitive
// keywords become cty scalars; any other bare identifier must name a
// previously registered managed type; `collection(<managed type>)` builds
// a managed collection type.
func (l *Loader) typeExpr(expr hcl.Expression) (modeltype.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if v.Name != "collection" {
			return modeltype.Type{}, fmt.Errorf("unknown type constructor function %q", v.Name)
		}
		if len(v.Args) != 1 {
			return modeltype.Type{}, fmt.Errorf("collection(...) requires exactly one argument, got %d", len(v.Args))
		}
		elem, err := l.managedRef(v.Args[0])
		if err != nil {
			return modeltype.Type{}, err
		}
		return modeltype.CollectionOf(elem), nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return modeltype.Type{}, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		switch rootName {
		case "string":
			return modeltype.Scalar(cty.String), nil
		case "number":
			return modeltype.Scalar(cty.Number), nil
		case "bool":
			return modeltype.Scalar(cty.Bool), nil
		default:
			desc, ok := l.types.Lookup(rootName)
			if !ok {
				return modeltype.Type{}, fmt.Errorf("unknown type %q: not a primitive and no managed type with that name is declared", rootName)
			}
			return modeltype.ObjectOf(desc), nil
		}

	default:
		return modeltype.Type{}, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

// managedRef resolves an expression that must name a registered managed
// type.
func (l *Loader) managedRef(expr hcl.Expression) (*modeltype.Descriptor, error) {
	t, err := l.typeExpr(expr)
	if err != nil {
		return nil, err
	}
	if t.Kind() != modeltype.ObjectKind {
		return nil, fmt.Errorf("expected a managed type name, got '%s'", t)
	}
	return t.Descriptor(), nil
}
