// Package rule defines the identity of a model rule: its declared name and
// parameter types. Every view handle and every violation message carries a
// rule identity, so the formatting here is part of the observable contract.
package rule

import (
	"fmt"
	"strings"
)

// ID identifies a single registered rule. Two rules with the same name but
// different parameter types are distinct identities.
type ID struct {
	// Name is the declared rule name, e.g. "people".
	Name string
	// Params are the friendly names of the rule's declared parameter types,
	// e.g. ["collection<Person>"]. May be empty.
	Params []string
}

// New builds an ID from a name and zero or more parameter type names.
func New(name string, params ...string) ID {
	return ID{Name: name, Params: params}
}

// Access builds the pseudo-identity used for script-level reads of a model
// path performed outside any registered rule, e.g. `$("people")`.
func Access(path string) ID {
	return ID{Name: fmt.Sprintf("$(%q)", path)}
}

// String renders the identity as it appears in violation messages:
// `name(Param1, Param2)`, or just `name` when no parameters are declared.
func (id ID) String() string {
	if len(id.Params) == 0 {
		return id.Name
	}
	return fmt.Sprintf("%s(%s)", id.Name, strings.Join(id.Params, ", "))
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool {
	return id.Name == "" && len(id.Params) == 0
}

// Equal reports whether two identities name the same rule.
func (id ID) Equal(other ID) bool {
	if id.Name != other.Name || len(id.Params) != len(other.Params) {
		return false
	}
	for i, p := range id.Params {
		if p != other.Params[i] {
			return false
		}
	}
	return true
}
