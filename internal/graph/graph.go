// Package graph is the addressable store of model nodes. Each node is keyed
// by a dot-separated, case-sensitive path and owns the lifecycle phase of
// the value that will eventually live at that path. The graph knows nothing
// about rules or views; it only enforces the phase machine
// Declared -> Creating -> Open -> Closed.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/modelgraph/internal/modeltype"
)

var (
	// ErrDuplicatePath is returned when a path is declared twice with
	// incompatible types.
	ErrDuplicatePath = errors.New("duplicate model path")
	// ErrNotFound is returned when a path has never been declared.
	ErrNotFound = errors.New("model path not found")
	// ErrIllegalPhase is returned when a phase transition is requested from
	// a phase that does not permit it.
	ErrIllegalPhase = errors.New("illegal model phase")
)

// Graph is the node store. All operations are concurrency-safe, though rule
// execution itself is single-threaded.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all declared nodes, keyed by path.
	nodes map[string]*Node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// Declare registers a node at the given path in the Declared phase.
// Re-declaring a path with the identical type is a no-op returning the
// existing node; re-declaring with a different type fails with
// ErrDuplicatePath.
func (g *Graph) Declare(path string, typ modeltype.Type) (*Node, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if existing, ok := g.nodes[path]; ok {
		if existing.typ.Equal(typ) {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: '%s' already declared with type '%s', redeclared with type '%s'",
			ErrDuplicatePath, path, existing.typ, typ)
	}

	n := &Node{path: path, typ: typ, phase: Declared}
	g.nodes[path] = n
	return n, nil
}

// Locate returns the node at the given path, or ErrNotFound.
func (g *Graph) Locate(path string) (*Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[path]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, path)
	}
	return n, nil
}

// Paths returns all declared paths. Order is unspecified.
func (g *Graph) Paths() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	return paths
}
