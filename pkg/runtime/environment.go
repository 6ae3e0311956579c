package runtime

import (
	"fmt"
	"sort"
)

// Environment is one immutable lexical scope chained to its parent. Scopes are never mutated
// once visible to evaluation; the only exception is the single Populate of a slot created by
// Reserve, which is how let-rec ties its knot.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Extend returns a child scope binding name to value. The receiver is unchanged.
func (e *Environment) Extend(name string, value Value) *Environment {
	child := NewEnvironment(e)
	child.values[name] = value
	return child
}

// Reserve returns a child scope whose binding for name exists but is not yet populated.
func (e *Environment) Reserve(name string) *Environment {
	child := NewEnvironment(e)
	child.values[name] = nil
	return child
}

// Populate fills the slot created by Reserve. It fails when the slot is missing or already set.
func (e *Environment) Populate(name string, value Value) error {
	current, ok := e.values[name]
	if !ok {
		return fmt.Errorf("no reserved binding '%s' in this scope", name)
	}
	if current != nil {
		return fmt.Errorf("binding '%s' is already populated", name)
	}
	if value == nil {
		return fmt.Errorf("cannot populate '%s' with nil", name)
	}
	e.values[name] = value
	return nil
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if v, ok := scope.values[name]; ok {
			if v == nil {
				return nil, fmt.Errorf("'%s' used before fully bound", name)
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("Undefined variable '%s'", name)
}

// Names returns every visible binding name in sorted order, inner shadowing outer.
func (e *Environment) Names() []string {
	seen := make(map[string]struct{})
	for scope := e; scope != nil; scope = scope.parent {
		for k := range scope.values {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
