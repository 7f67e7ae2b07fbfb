package managed

import (
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/view"
)

// Collection is a synthesized managed collection: an ordered sequence of
// elements of one managed element type. Element creation requires write
// capability; enumeration requires read capability. The two are never
// available through the same handle, which is what keeps a collection
// unreadable while structurally incomplete and immutable once observed.
type Collection struct {
	elem     *modeltype.Descriptor
	state    *collectionState
	view     *view.View
	wrappers map[*objectState]*Object
}

func newCollection(elem *modeltype.Descriptor, state *collectionState, v *view.View) *Collection {
	return &Collection{
		elem:     elem,
		state:    state,
		view:     v,
		wrappers: make(map[*objectState]*Object),
	}
}

// ElementType returns the managed element type descriptor.
func (c *Collection) ElementType() *modeltype.Descriptor { return c.elem }

// Create synthesizes a new element bound to fresh backing state, applies
// the initializer to it under the same writer view, and appends it to the
// sequence. Insertion order is preserved. Requires write capability.
func (c *Collection) Create(initialize func(*Object) error) error {
	if err := c.view.CheckWrite(); err != nil {
		return err
	}

	st := newObjectState()
	elem := newObject(c.elem, st, c.view)
	if initialize != nil {
		if err := initialize(elem); err != nil {
			return err
		}
	}
	c.state.elems = append(c.state.elems, st)
	c.wrappers[st] = elem
	return nil
}

// Size returns the number of elements. Requires read capability.
func (c *Collection) Size() (int, error) {
	if err := c.view.CheckRead(); err != nil {
		return 0, err
	}
	return len(c.state.elems), nil
}

// Each calls fn for every element in insertion order, stopping at the
// first error. Requires read capability.
func (c *Collection) Each(fn func(*Object) error) error {
	if err := c.view.CheckRead(); err != nil {
		return err
	}
	for _, st := range c.state.elems {
		if err := fn(c.wrapper(st)); err != nil {
			return err
		}
	}
	return nil
}

// ToSlice returns the elements in insertion order. Requires read
// capability.
func (c *Collection) ToSlice() ([]*Object, error) {
	if err := c.view.CheckRead(); err != nil {
		return nil, err
	}
	elems := make([]*Object, 0, len(c.state.elems))
	for _, st := range c.state.elems {
		elems = append(elems, c.wrapper(st))
	}
	return elems, nil
}

// wrapper returns the cached instance for an element's backing state, so
// repeated enumeration yields identical instances.
func (c *Collection) wrapper(st *objectState) *Object {
	if w, ok := c.wrappers[st]; ok {
		return w
	}
	w := newObject(c.elem, st, c.view)
	c.wrappers[st] = w
	return w
}
