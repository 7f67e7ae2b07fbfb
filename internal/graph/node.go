package graph

import (
	"fmt"

	"github.com/vk/modelgraph/internal/modeltype"
)

// Phase is the lifecycle state of a node.
type Phase int32

const (
	// Declared means the path and type are known but no value exists yet.
	Declared Phase = iota
	// Creating means the creation rule is executing and the value is being
	// built. A node in Creating must never be read; a second realization
	// request for it is a dependency cycle.
	Creating
	// Open means the value exists and registered mutation rules may still
	// run against it.
	Open
	// Closed is terminal: the value is finalized, no further writer views
	// are issued, and any number of reader views may be issued.
	Closed
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case Declared:
		return "declared"
	case Creating:
		return "creating"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Node is a single addressable slot in the model graph. The node owns its
// lifecycle phase and, once created, its backing value. The value is set
// exactly once, at the Creating -> Open transition, and is never replaced
// afterwards; all later changes go through views over the same value.
type Node struct {
	path  string
	typ   modeltype.Type
	phase Phase
	value any
}

// Path returns the node's unique dot-separated path.
func (n *Node) Path() string { return n.path }

// DeclaredType returns the node's declared value type.
func (n *Node) DeclaredType() modeltype.Type { return n.typ }

// Phase returns the node's current lifecycle phase.
func (n *Node) Phase() Phase { return n.phase }

// Value returns the materialized backing value, or nil before creation
// finishes.
func (n *Node) Value() any { return n.value }

// BeginCreate transitions Declared -> Creating. Any other starting phase is
// an ErrIllegalPhase.
func (n *Node) BeginCreate() error {
	if n.phase != Declared {
		return fmt.Errorf("%w: cannot begin creating '%s' while %s", ErrIllegalPhase, n.path, n.phase)
	}
	n.phase = Creating
	return nil
}

// FinishCreate stores the materialized value and transitions
// Creating -> Open.
func (n *Node) FinishCreate(value any) error {
	if n.phase != Creating {
		return fmt.Errorf("%w: cannot finish creating '%s' while %s", ErrIllegalPhase, n.path, n.phase)
	}
	n.value = value
	n.phase = Open
	return nil
}

// Close transitions Open -> Closed. Closing an already-Closed node is a
// no-op; closing while Declared or Creating is an ErrIllegalPhase.
func (n *Node) Close() error {
	switch n.phase {
	case Closed:
		return nil
	case Open:
		n.phase = Closed
		return nil
	default:
		return fmt.Errorf("%w: cannot close '%s' while %s", ErrIllegalPhase, n.path, n.phase)
	}
}
