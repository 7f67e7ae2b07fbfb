package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/modelgraph/internal/engine"
	"github.com/vk/modelgraph/internal/managed"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// renderTarget reads a realized path through the script-level accessor and
// renders one report line. Collections whose element type declares a
// "name" property render as `path: n1, n2, n3` with names sorted; other
// values render their properties in declaration order.
func renderTarget(ctx context.Context, eng *engine.Engine, path string) (string, error) {
	v, err := eng.Get(ctx, path)
	if err != nil {
		return "", err
	}

	switch val := v.(type) {
	case *managed.Collection:
		rendered, err := renderCollection(val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s", path, rendered), nil
	case *managed.Object:
		rendered, err := renderObject(val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s", path, rendered), nil
	case cty.Value:
		return fmt.Sprintf("%s: %s", path, scalarString(val)), nil
	default:
		return "", fmt.Errorf("cannot render value of type %T for '%s'", v, path)
	}
}

func renderCollection(c *managed.Collection) (string, error) {
	_, hasName := c.ElementType().Property("name")

	var parts []string
	err := c.Each(func(o *managed.Object) error {
		if hasName {
			nv, err := o.Get("name")
			if err != nil {
				return err
			}
			parts = append(parts, scalarString(nv.(cty.Value)))
			return nil
		}
		rendered, err := renderObject(o)
		if err != nil {
			return err
		}
		parts = append(parts, rendered)
		return nil
	})
	if err != nil {
		return "", err
	}
	if hasName {
		sort.Strings(parts)
	}
	return strings.Join(parts, ", "), nil
}

func renderObject(o *managed.Object) (string, error) {
	var parts []string
	for _, prop := range o.Descriptor().Properties() {
		v, err := o.Get(prop.Name)
		if err != nil {
			return "", err
		}
		switch pv := v.(type) {
		case cty.Value:
			parts = append(parts, fmt.Sprintf("%s: %s", prop.Name, scalarString(pv)))
		case *managed.Object:
			nested, err := renderObject(pv)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s: %s", prop.Name, nested))
		case *managed.Collection:
			nested, err := renderCollection(pv)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s: [%s]", prop.Name, nested))
		}
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", ")), nil
}

// scalarString renders a cty scalar for the report. Unset properties
// render as "null".
func scalarString(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return v.GoString()
	}
	return s.AsString()
}
