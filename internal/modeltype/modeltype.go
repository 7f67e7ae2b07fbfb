// Package modeltype describes the shapes of managed model values. A managed
// type is a named set of properties; each property is a cty scalar, a
// reference to another managed type, or a managed collection. Synthesized
// instances hold no behavior of their own, so the descriptor is the single
// source of truth for what accessors exist and what they accept.
package modeltype

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind distinguishes the three shapes a model value can take.
type Kind int

const (
	// ScalarKind is a plain cty value (string, number, bool, ...).
	ScalarKind Kind = iota
	// ObjectKind is an instance of a managed type.
	ObjectKind
	// CollectionKind is an ordered, element-creating collection of one
	// managed element type.
	CollectionKind
)

// Type is the declared type of a node or property.
type Type struct {
	kind   Kind
	scalar cty.Type
	desc   *Descriptor // object descriptor, or collection element descriptor
}

// Scalar returns the Type for a plain cty value.
func Scalar(ct cty.Type) Type {
	return Type{kind: ScalarKind, scalar: ct}
}

// ObjectOf returns the Type for an instance of the given managed type.
func ObjectOf(d *Descriptor) Type {
	return Type{kind: ObjectKind, desc: d}
}

// CollectionOf returns the Type for a collection of the given managed
// element type.
func CollectionOf(elem *Descriptor) Type {
	return Type{kind: CollectionKind, desc: elem}
}

// Kind returns the shape of the type.
func (t Type) Kind() Kind { return t.kind }

// CtyType returns the scalar cty type. Only meaningful for ScalarKind.
func (t Type) CtyType() cty.Type { return t.scalar }

// Descriptor returns the managed type descriptor: the object's own type for
// ObjectKind, or the element type for CollectionKind. Nil for ScalarKind.
func (t Type) Descriptor() *Descriptor { return t.desc }

// Equal reports whether two types describe the same shape. Managed types
// compare by descriptor identity, matching how they are registered.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	if t.kind == ScalarKind {
		return t.scalar.Equals(o.scalar)
	}
	return t.desc == o.desc
}

// String renders the type name as it appears in violation messages, e.g.
// "Person", "collection<Person>" or "string".
func (t Type) String() string {
	switch t.kind {
	case ObjectKind:
		return t.desc.Name()
	case CollectionKind:
		return fmt.Sprintf("collection<%s>", t.desc.Name())
	default:
		return t.scalar.FriendlyName()
	}
}

// Property is one declared accessor pair of a managed type.
type Property struct {
	// Name is the property name as used by Get/Set.
	Name string
	// Type is the declared property type.
	Type Type
}

// Descriptor is the schema of one managed type. Descriptors are immutable
// after construction; property order is the declaration order and is
// preserved by iteration.
type Descriptor struct {
	name  string
	props []Property
	index map[string]int
}

// NewDescriptor builds a descriptor from a type name and its declared
// properties. It panics on a duplicate property name; descriptors are
// constructed at registration time where a panic is a programming error,
// matching how handler registries treat duplicates.
func NewDescriptor(name string, props ...Property) *Descriptor {
	d := &Descriptor{
		name:  name,
		props: props,
		index: make(map[string]int, len(props)),
	}
	for i, p := range props {
		if _, exists := d.index[p.Name]; exists {
			panic(fmt.Sprintf("managed type %q declares property %q twice", name, p.Name))
		}
		d.index[p.Name] = i
	}
	return d
}

// Name returns the declared managed type name.
func (d *Descriptor) Name() string { return d.name }

// Property looks up a declared property by name.
func (d *Descriptor) Property(name string) (Property, bool) {
	i, ok := d.index[name]
	if !ok {
		return Property{}, false
	}
	return d.props[i], true
}

// Properties returns the declared properties in declaration order. The
// returned slice must not be modified.
func (d *Descriptor) Properties() []Property { return d.props }
