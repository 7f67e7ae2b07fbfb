package view

import (
	"context"
	"fmt"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/graph"
	"github.com/vk/modelgraph/internal/rule"
)

// Roles answers whether a rule is registered as a writer (creator or
// mutator) for a path. Implemented by the scheduler's rule registry.
type Roles interface {
	IsWriter(path string, id rule.ID) bool
}

// Enforcer owns the issuance discipline for one model graph: at most one
// outstanding writer view per node, unlimited reader views, and the
// read-closes-the-node side effect that makes "many readers" and "any
// further writer" mutually exclusive windows in time.
type Enforcer struct {
	roles Roles
	// writers tracks the single outstanding writer view per node.
	writers map[*graph.Node]*View
	// readerIssued records nodes for which at least one reader view has
	// ever been issued. Such nodes never accept another writer.
	readerIssued map[*graph.Node]bool
}

// NewEnforcer creates an Enforcer consulting the given role registry.
func NewEnforcer(roles Roles) *Enforcer {
	return &Enforcer{
		roles:        roles,
		writers:      make(map[*graph.Node]*View),
		readerIssued: make(map[*graph.Node]bool),
	}
}

// IssueWrite issues (or re-issues) the writer view for a node to the given
// rule. Permitted only for the node's registered creator or mutators, only
// while the node is Creating or Open, and only while no reader view has
// ever been issued. A re-entrant request from the rule already holding the
// writer view returns the same handle.
func (e *Enforcer) IssueWrite(ctx context.Context, n *graph.Node, owner rule.ID) (*View, error) {
	logger := ctxlog.FromContext(ctx)

	if existing := e.writers[n]; existing != nil {
		if existing.owner.Equal(owner) {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: writer view for '%s' already held by rule '%s', requested by rule '%s'",
			ErrClosedViewViolation, n.Path(), existing.owner, owner)
	}

	if e.readerIssued[n] || n.Phase() == graph.Closed {
		return nil, &ClosedViewError{ModelType: n.DeclaredType(), Rule: owner}
	}
	if n.Phase() != graph.Creating && n.Phase() != graph.Open {
		return nil, fmt.Errorf("%w: cannot write '%s' while %s", graph.ErrIllegalPhase, n.Path(), n.Phase())
	}
	if !e.roles.IsWriter(n.Path(), owner) {
		return nil, &ClosedViewError{ModelType: n.DeclaredType(), Rule: owner}
	}

	v := &View{owner: owner, cap: WriteOnly, node: n}
	e.writers[n] = v
	logger.Debug("Issued writer view.", "path", n.Path(), "rule", owner.String(), "phase", n.Phase().String())
	return v, nil
}

// IssueRead issues a reader view for a node. Always permitted unless the
// requesting rule currently holds the node's sole outstanding writer view.
// Issuing the first reader view forces the node Closed, expiring any
// outstanding writer handle.
func (e *Enforcer) IssueRead(ctx context.Context, n *graph.Node, owner rule.ID) (*View, error) {
	logger := ctxlog.FromContext(ctx)

	if w := e.writers[n]; w != nil && w.owner.Equal(owner) {
		// Reading the subject mid-construction through its own writer.
		return nil, &WriteOnlyError{ModelType: n.DeclaredType(), Rule: owner}
	}

	switch n.Phase() {
	case graph.Declared, graph.Creating:
		return nil, fmt.Errorf("%w: cannot read '%s' while %s", graph.ErrIllegalPhase, n.Path(), n.Phase())
	case graph.Open:
		if err := e.CloseNode(ctx, n); err != nil {
			return nil, err
		}
	}

	e.readerIssued[n] = true
	logger.Debug("Issued reader view.", "path", n.Path(), "rule", owner.String())
	return &View{owner: owner, cap: ReadOnly, node: n}, nil
}

// CloseNode transitions a node to Closed and expires its outstanding
// writer view, if any.
func (e *Enforcer) CloseNode(ctx context.Context, n *graph.Node) error {
	if err := n.Close(); err != nil {
		return err
	}
	if w := e.writers[n]; w != nil {
		w.expired = true
		delete(e.writers, n)
	}
	ctxlog.FromContext(ctx).Debug("Closed node.", "path", n.Path())
	return nil
}

// Expire invalidates a handle at the end of its owning rule's invocation.
// Expiring is idempotent; reader views issued to script-level access (which
// has no invocation scope) are simply never expired.
func (e *Enforcer) Expire(v *View) {
	v.expired = true
	if e.writers[v.node] == v {
		delete(e.writers, v.node)
	}
}

// ReaderIssued reports whether any reader view has ever been issued for
// the node.
func (e *Enforcer) ReaderIssued(n *graph.Node) bool {
	return e.readerIssued[n]
}

// Writer returns the outstanding writer view for the node, or nil.
func (e *Enforcer) Writer(n *graph.Node) *View {
	return e.writers[n]
}
