// Package managed synthesizes the instances of declared managed types. An
// instance stores no state of its own: all state lives in the backing
// node's state tree, and every accessor call is checked against the view
// the instance was synthesized with before it touches that tree.
package managed

import (
	"errors"

	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/view"
)

var (
	// ErrTypeMismatch is returned when a property assignment does not
	// conform to the declared property type, or when the assigned value is
	// not itself fully managed.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrNoSuchProperty is returned for access to an undeclared property.
	ErrNoSuchProperty = errors.New("no such property")
)

// objectState is the backing storage of one managed object. Property slots
// hold cty.Value for scalars, *objectState for nested managed objects and
// *collectionState for managed collections.
type objectState struct {
	props map[string]any
}

func newObjectState() *objectState {
	return &objectState{props: make(map[string]any)}
}

// collectionState is the backing storage of one managed collection. Element
// order is insertion order.
type collectionState struct {
	elems []*objectState
}

// NewState allocates empty backing state for a node of the given declared
// type. Nested managed state is allocated lazily on first property access,
// which keeps recursive managed types finite.
func NewState(t modeltype.Type) any {
	switch t.Kind() {
	case modeltype.ObjectKind:
		return newObjectState()
	case modeltype.CollectionKind:
		return &collectionState{}
	default:
		return nil
	}
}

// Synthesize wraps backing state in the accessor instance matching the
// declared type, bound to the given view. Scalar state passes through
// unchanged.
func Synthesize(t modeltype.Type, state any, v *view.View) any {
	switch t.Kind() {
	case modeltype.ObjectKind:
		return newObject(t.Descriptor(), state.(*objectState), v)
	case modeltype.CollectionKind:
		return newCollection(t.Descriptor(), state.(*collectionState), v)
	default:
		return state
	}
}
