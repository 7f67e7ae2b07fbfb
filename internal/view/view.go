// Package view issues and polices the capability-tagged handles through
// which rules touch model values. A view's capability is fixed when the
// handle is issued and is never re-derived from the node's current phase:
// a handle is a one-shot capability token that can only become weaker (by
// expiring), never stronger. Storing a handle beyond its owning rule's
// invocation is allowed; using it afterwards is a checked failure.
package view

import (
	"github.com/vk/modelgraph/internal/graph"
	"github.com/vk/modelgraph/internal/rule"
)

// Capability is the fixed access level of an issued view.
type Capability int

const (
	// WriteOnly permits create/mutate operations and forbids reads.
	WriteOnly Capability = iota
	// ReadOnly permits reads and forbids mutation.
	ReadOnly
	// Closed permits nothing. Used for handles that were invalid at
	// issuance time.
	Closed
)

// String returns a short capability name for logs.
func (c Capability) String() string {
	switch c {
	case WriteOnly:
		return "write-only"
	case ReadOnly:
		return "read-only"
	default:
		return "closed"
	}
}

// View is a handle over one node's value, scoped to one rule invocation.
type View struct {
	owner   rule.ID
	cap     Capability
	node    *graph.Node
	expired bool
}

// Owner returns the rule identity the view was issued to.
func (v *View) Owner() rule.ID { return v.owner }

// Capability returns the view's fixed capability.
func (v *View) Capability() Capability { return v.cap }

// Node returns the node the view was issued over.
func (v *View) Node() *graph.Node { return v.node }

// Expired reports whether the handle has been invalidated.
func (v *View) Expired() bool { return v.expired }

// CheckRead validates a read operation against the handle. An expired
// handle fails every operation as a closed-view violation, naming the
// handle's original owner.
func (v *View) CheckRead() error {
	if v.expired || v.cap == Closed {
		return &ClosedViewError{ModelType: v.node.DeclaredType(), Rule: v.owner}
	}
	if v.cap == WriteOnly {
		return &WriteOnlyError{ModelType: v.node.DeclaredType(), Rule: v.owner}
	}
	return nil
}

// CheckAlive validates that the handle has not expired. Navigation to a
// nested managed value is legal under either capability, so it only needs
// the handle to still be live.
func (v *View) CheckAlive() error {
	if v.expired || v.cap == Closed {
		return &ClosedViewError{ModelType: v.node.DeclaredType(), Rule: v.owner}
	}
	return nil
}

// CheckWrite validates a create/mutate operation against the handle.
func (v *View) CheckWrite() error {
	if v.expired || v.cap != WriteOnly {
		return &ClosedViewError{ModelType: v.node.DeclaredType(), Rule: v.owner}
	}
	return nil
}
