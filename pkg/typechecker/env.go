package typechecker

import (
	"sort"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/runtime"
)

// binding is the static fact recorded for one name: its type and ownership state.
type binding struct {
	name string
	typ  Type
	node ast.Node

	// moved is set once the value has been relocated by a plain use or unbox.
	moved bool
	// usedUnresolved records a plain use that happened while typ was still a variable.
	usedUnresolved bool
	// loans are the live borrows taken against this binding.
	loans []*loan
	// carried are loans held by the binding's value (a Ref, a closure, a Box holding a Ref).
	carried []*loan
	// depth is the lambda nesting depth at which the binding was introduced.
	depth int
}

// Environment represents a lexical scope used during analysis.
type Environment struct {
	parent  *Environment
	symbols map[string]*binding
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:  parent,
		symbols: make(map[string]*binding),
	}
}

// Define binds a name to a type in the current scope with Owned state.
func (e *Environment) Define(name string, typ Type) {
	e.symbols[name] = &binding{name: name, typ: typ}
}

func (e *Environment) define(b *binding) {
	e.symbols[b.name] = b
}

func (e *Environment) lookup(name string) (*binding, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if b, ok := scope.symbols[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Lookup searches for a name in the current scope chain.
func (e *Environment) Lookup(name string) (Type, bool) {
	b, ok := e.lookup(name)
	if !ok {
		return nil, false
	}
	return b.typ, true
}

// Extend returns a child environment.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}

// Fact is the externally visible ownership state of a binding.
type Fact struct {
	Type    Type
	State   runtime.OwnershipState
	Borrows int
}

// Fact reports the current ownership state of name.
func (e *Environment) Fact(name string) (Fact, bool) {
	b, ok := e.lookup(name)
	if !ok {
		return Fact{}, false
	}
	return b.fact(), true
}

func (b *binding) fact() Fact {
	f := Fact{Type: b.typ, State: runtime.StateOwned}
	if b.moved {
		f.State = runtime.StateMoved
		return f
	}
	for _, l := range b.loans {
		if l.mutable {
			f.State = runtime.StateMutablyBorrowed
			f.Borrows = 1
			return f
		}
		f.Borrows++
	}
	if f.Borrows > 0 {
		f.State = runtime.StateImmutablyBorrowed
	}
	return f
}

// Names returns the names bound in the current scope only, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.symbols))
	for name := range e.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bindings lists every binding reachable from e, shadowed ones included.
func (e *Environment) bindings() []*binding {
	var out []*binding
	for scope := e; scope != nil; scope = scope.parent {
		for _, b := range scope.symbols {
			out = append(out, b)
		}
	}
	return out
}

// clone deep-copies the chain so analysis never mutates the caller's facts.
func (e *Environment) clone() *Environment {
	if e == nil {
		return nil
	}
	out := NewEnvironment(e.parent.clone())
	for name, b := range e.symbols {
		copied := *b
		copied.loans = nil
		copied.carried = nil
		out.symbols[name] = &copied
	}
	return out
}
