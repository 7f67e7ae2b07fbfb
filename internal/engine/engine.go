// Package engine is the outward surface of the model core. Front ends
// (manifest loaders, script layers, task executors) declare model elements
// and rules here and force realization through RunToCompletion; they never
// touch the graph, enforcer or scheduler directly.
package engine

import (
	"context"

	"github.com/vk/modelgraph/internal/graph"
	"github.com/vk/modelgraph/internal/modeltype"
	"github.com/vk/modelgraph/internal/rule"
	"github.com/vk/modelgraph/internal/scheduler"
)

// Engine wires a node graph to a rule scheduler.
type Engine struct {
	sched *scheduler.Scheduler
}

// New creates an empty model engine.
func New() *Engine {
	return &Engine{sched: scheduler.New(graph.New())}
}

// DeclareModel registers a root or nested model element at path with its
// declared type and unique creation rule.
func (e *Engine) DeclareModel(path string, typ modeltype.Type, creator *scheduler.Rule) error {
	return e.sched.DeclareCreator(path, typ, creator)
}

// RegisterMutator adds a mutation rule for an existing or future path.
func (e *Engine) RegisterMutator(path string, mutator *scheduler.Rule) {
	e.sched.AddMutator(path, mutator)
}

// Get is the script-level accessor: it realizes the path and returns a
// read-only instance, permanently closing the node to writers. The view's
// owner identity is the access expression itself, so later misuse of the
// returned instance is attributed to the access point.
func (e *Engine) Get(ctx context.Context, path string) (any, error) {
	return e.sched.ReadView(ctx, path, rule.Access(path))
}

// RunToCompletion realizes and closes the named paths and everything they
// transitively depend on.
func (e *Engine) RunToCompletion(ctx context.Context, paths ...string) error {
	return e.sched.RunToCompletion(ctx, paths...)
}

// Scheduler exposes the underlying scheduler for advanced callers.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }
