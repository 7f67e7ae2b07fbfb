// Package scheduler registers rules against model paths and realizes nodes
// on demand. Execution is single-threaded and rule-at-a-time: a rule runs
// to completion (or failure) before the next begins, so the only ordering
// guarantees needed are creator-before-mutators and mutators in
// registration order. Realization is demand-driven: a creation rule runs
// no earlier than the first time something requires its path.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/graph"
	"github.com/vk/modelgraph/internal/managed"
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/rule"
	"github.com/vk/modelgraph/internal/view"
)

var (
	// ErrCycle is returned when realizing a path re-enters a path that is
	// still Creating. The message lists the realization request stack.
	ErrCycle = errors.New("model cycle")
	// ErrNoCreator is returned when a Declared path has no registered
	// creation rule at realization time.
	ErrNoCreator = errors.New("no creation rule registered")
)

// Scheduler owns the rule registry and drives realization. It implements
// view.Roles so the enforcer can ask which rules are legal writers.
type Scheduler struct {
	graph    *graph.Graph
	enforcer *view.Enforcer
	rules    map[string]*ruleSet
	// stack is the explicit realization request stack, used to fail fast
	// with the full chain when a creation cycle is detected.
	stack []string
}

// New creates a Scheduler over the given graph.
func New(g *graph.Graph) *Scheduler {
	s := &Scheduler{
		graph: g,
		rules: make(map[string]*ruleSet),
	}
	s.enforcer = view.NewEnforcer(s)
	return s
}

// Graph returns the underlying node graph.
func (s *Scheduler) Graph() *graph.Graph { return s.graph }

// Enforcer returns the view enforcer bound to this scheduler.
func (s *Scheduler) Enforcer() *view.Enforcer { return s.enforcer }

// IsWriter reports whether the rule is the registered creator or one of
// the registered mutators for the path.
func (s *Scheduler) IsWriter(path string, id rule.ID) bool {
	rs, ok := s.rules[path]
	if !ok {
		return false
	}
	if rs.creator != nil && rs.creator.ID.Equal(id) {
		return true
	}
	for _, m := range rs.mutators {
		if m.ID.Equal(id) {
			return true
		}
	}
	return false
}

// DeclareCreator declares a node and registers its unique creation rule.
func (s *Scheduler) DeclareCreator(path string, typ modeltype.Type, creator *Rule) error {
	if _, err := s.graph.Declare(path, typ); err != nil {
		return err
	}
	rs := s.ruleSet(path)
	if rs.creator != nil {
		return fmt.Errorf("%w: '%s' already has creation rule '%s'", graph.ErrDuplicatePath, path, rs.creator.ID)
	}
	rs.creator = creator
	return nil
}

// AddMutator registers a mutation rule for an existing or future path.
// Mutators run strictly after the path's creator and strictly in
// registration order.
func (s *Scheduler) AddMutator(path string, mutator *Rule) {
	rs := s.ruleSet(path)
	rs.mutators = append(rs.mutators, mutator)
}

func (s *Scheduler) ruleSet(path string) *ruleSet {
	rs, ok := s.rules[path]
	if !ok {
		rs = &ruleSet{}
		s.rules[path] = rs
	}
	return rs
}

// Realize materializes the node at path: runs its creation rule if it has
// not run, then any registered mutators that have not run yet, in
// registration order. Idempotent for Open/Closed nodes with no pending
// mutators.
func (s *Scheduler) Realize(ctx context.Context, path string) (*graph.Node, error) {
	n, err := s.graph.Locate(path)
	if err != nil {
		return nil, err
	}

	if n.Phase() == graph.Creating {
		chain := append(append([]string{}, s.stack...), path)
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
	}

	if n.Phase() == graph.Declared {
		rs := s.rules[path]
		if rs == nil || rs.creator == nil {
			return nil, fmt.Errorf("%w for '%s'", ErrNoCreator, path)
		}
		ctxlog.FromContext(ctx).Debug("Realizing node.", "path", path, "rule", rs.creator.ID.String())
		s.stack = append(s.stack, path)
		err := s.runRule(ctx, n, rs.creator, true)
		s.stack = s.stack[:len(s.stack)-1]
		if err != nil {
			return nil, err
		}
	}

	if rs := s.rules[path]; rs != nil {
		for rs.mutatorsRun < len(rs.mutators) {
			m := rs.mutators[rs.mutatorsRun]
			rs.mutatorsRun++
			if err := s.runRule(ctx, n, m, false); err != nil {
				return nil, err
			}
		}
	}

	return n, nil
}

// runRule executes one rule invocation against its subject node. Inputs
// are realized and read first (closing them), then the subject is bound to
// a writer view. Every view issued for the invocation expires when the
// invocation ends, success or not.
func (s *Scheduler) runRule(ctx context.Context, n *graph.Node, r *Rule, creating bool) error {
	logger := ctxlog.FromContext(ctx)

	var issued []*view.View
	defer func() {
		for _, v := range issued {
			s.enforcer.Expire(v)
		}
	}()

	if creating {
		if err := n.BeginCreate(); err != nil {
			return err
		}
	}

	inputs := make(map[string]any, len(r.Inputs))
	for _, inPath := range r.Inputs {
		inNode, err := s.Realize(ctx, inPath)
		if err != nil {
			return err
		}
		rv, err := s.enforcer.IssueRead(ctx, inNode, r.ID)
		if err != nil {
			return s.ruleFailure(r, err)
		}
		issued = append(issued, rv)
		inputs[inPath] = managed.Synthesize(inNode.DeclaredType(), inNode.Value(), rv)
	}

	wv, err := s.enforcer.IssueWrite(ctx, n, r.ID)
	if err != nil {
		return s.ruleFailure(r, err)
	}
	issued = append(issued, wv)

	state := n.Value()
	if creating {
		state = managed.NewState(n.DeclaredType())
	}
	scope := &Scope{
		subject: managed.Synthesize(n.DeclaredType(), state, wv),
		inputs:  inputs,
	}

	logger.Debug("Executing model rule.", "rule", r.ID.String(), "path", n.Path(), "creating", creating)
	if err := r.Fn(ctx, scope); err != nil {
		return s.ruleFailure(r, err)
	}

	if creating {
		if err := n.FinishCreate(state); err != nil {
			return err
		}
	}
	return nil
}

// ruleFailure wraps a violation or thrown error as the failure of the
// executing rule. Nothing is rolled back and nothing is retried.
func (s *Scheduler) ruleFailure(r *Rule, err error) error {
	return fmt.Errorf("Exception thrown while executing model rule: %s: %w", r.ID, err)
}

// ReadView realizes a path and issues a reader view to the given identity,
// closing the node. It returns the read-bound instance.
func (s *Scheduler) ReadView(ctx context.Context, path string, owner rule.ID) (any, error) {
	n, err := s.Realize(ctx, path)
	if err != nil {
		return nil, err
	}
	rv, err := s.enforcer.IssueRead(ctx, n, owner)
	if err != nil {
		return nil, err
	}
	return managed.Synthesize(n.DeclaredType(), n.Value(), rv), nil
}

// RunToCompletion realizes and closes every named path and everything they
// transitively depend on.
func (s *Scheduler) RunToCompletion(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		n, err := s.Realize(ctx, p)
		if err != nil {
			return err
		}
		if n.Phase() == graph.Open {
			if err := s.enforcer.CloseNode(ctx, n); err != nil {
				return err
			}
		}
	}
	return nil
}
