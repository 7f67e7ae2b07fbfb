package view

import (
	"errors"
	"fmt"

	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/rule"
)

var (
	// ErrWriteOnlyViolation marks a read attempted through a write-only
	// view. Match with errors.Is.
	ErrWriteOnlyViolation = errors.New("write only view violation")
	// ErrClosedViewViolation marks a mutation attempted through a
	// read-only, closed or expired view. Match with errors.Is.
	ErrClosedViewViolation = errors.New("closed view violation")
)

// WriteOnlyError is the violation raised when a read operation is attempted
// through a WriteOnly view. Its message is a fixed template and part of the
// observable contract.
type WriteOnlyError struct {
	// ModelType is the declared type of the node the view was issued over.
	ModelType modeltype.Type
	// Rule is the identity the view was issued to.
	Rule rule.ID
}

func (e *WriteOnlyError) Error() string {
	return fmt.Sprintf("Attempt to read a write only view of model of type '%s' given to rule '%s'.",
		e.ModelType, e.Rule)
}

func (e *WriteOnlyError) Unwrap() error { return ErrWriteOnlyViolation }

// ClosedViewError is the violation raised when a write operation is
// attempted through a ReadOnly, Closed or expired view, or when any
// operation is attempted through an expired handle. Rule names the view's
// original owner, not the rule observing the failure.
type ClosedViewError struct {
	// ModelType is the declared type of the node the view was issued over.
	ModelType modeltype.Type
	// Rule is the identity the view was originally issued to.
	Rule rule.ID
}

func (e *ClosedViewError) Error() string {
	return fmt.Sprintf("Attempt to mutate closed view of model of type '%s' given to rule '%s'.",
		e.ModelType, e.Rule)
}

func (e *ClosedViewError) Unwrap() error { return ErrClosedViewViolation }
