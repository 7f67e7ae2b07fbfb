package modeltype

import (
	"fmt"
	"log/slog"
)

// Registry holds the managed type descriptors known to one engine instance,
// keyed by type name.
type Registry struct {
	descriptors map[string]*Descriptor
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}

// Register adds a descriptor to the registry. It panics if a descriptor with
// the same name is already registered; duplicate type declarations are a
// configuration-authoring error caught at load time.
func (r *Registry) Register(d *Descriptor) {
	if _, exists := r.descriptors[d.Name()]; exists {
		panic(fmt.Sprintf("managed type with name '%s' already registered", d.Name()))
	}
	slog.Debug("Registering managed type.", "name", d.Name())
	r.descriptors[d.Name()] = d
}

// Lookup returns the descriptor registered under the given name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}
