package scheduler

import (
	"context"

	"github.com/vk/modelgraph/internal/rule"
)

// Func is the body of a rule. It receives the scope holding its subject
// (under a writer view) and its declared inputs (under reader views).
// A rule runs exactly once per build, synchronously and non-reentrantly.
type Func func(ctx context.Context, s *Scope) error

// Rule binds an identity, a set of declared input paths and a body.
type Rule struct {
	// ID is the rule's declared identity.
	ID rule.ID
	// Inputs are the model paths the rule reads. They are realized
	// transitively and closed before the body runs.
	Inputs []string
	// Fn is the rule body.
	Fn Func
}

// Scope is what a rule invocation sees: its subject and its inputs, each
// already bound to the correct view capability.
type Scope struct {
	subject any
	inputs  map[string]any
}

// Subject returns the rule's subject instance bound to the writer view:
// a *managed.Object or *managed.Collection depending on the declared type.
func (s *Scope) Subject() any { return s.subject }

// Input returns the read-bound instance for a declared input path.
func (s *Scope) Input(path string) (any, bool) {
	v, ok := s.inputs[path]
	return v, ok
}

// ruleSet is the per-path rule registry entry: the unique creator plus
// mutators in registration order. mutatorsRun tracks how many of the
// mutators have already executed.
type ruleSet struct {
	creator     *Rule
	mutators    []*Rule
	mutatorsRun int
}
