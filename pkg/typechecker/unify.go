package typechecker

import (
	"fmt"

	"borrowlisp/interpreter-go/pkg/diag"
)

// unifyError explains why two types could not be made equal.
type unifyError struct {
	category diag.Category
	message  string
}

func (e *unifyError) Error() string { return e.message }

func mismatch(a, b Type) *unifyError {
	return &unifyError{category: diag.CategoryType, message: fmt.Sprintf("cannot match %s with %s", a.Name(), b.Name())}
}

func (c *Checker) freshVar() TypeVariable {
	c.nextVar++
	return TypeVariable{ID: c.nextVar}
}

// prune follows variable bindings until it reaches a non-variable or an unbound variable.
func (c *Checker) prune(t Type) Type {
	for {
		v, ok := t.(TypeVariable)
		if !ok {
			return t
		}
		next, bound := c.subst[v.ID]
		if !bound {
			return t
		}
		t = next
	}
}

// resolve substitutes every bound variable inside t.
func (c *Checker) resolve(t Type) Type {
	t = c.prune(t)
	switch tt := t.(type) {
	case FunctionType:
		return FunctionType{Param: c.resolve(tt.Param), Return: c.resolve(tt.Return)}
	case BoxType:
		return BoxType{Inner: c.resolve(tt.Inner)}
	case RefType:
		return RefType{Inner: c.resolve(tt.Inner), Mutable: tt.Mutable}
	default:
		return t
	}
}

func (c *Checker) occurs(id int, t Type) bool {
	t = c.prune(t)
	switch tt := t.(type) {
	case TypeVariable:
		return tt.ID == id
	case FunctionType:
		return c.occurs(id, tt.Param) || c.occurs(id, tt.Return)
	case BoxType:
		return c.occurs(id, tt.Inner)
	case RefType:
		return c.occurs(id, tt.Inner)
	}
	return false
}

// unify makes a and b equal by extending the substitution.
func (c *Checker) unify(a, b Type) *unifyError {
	a = c.prune(a)
	b = c.prune(b)
	if va, ok := a.(TypeVariable); ok {
		return c.bindVar(va, b)
	}
	if vb, ok := b.(TypeVariable); ok {
		return c.bindVar(vb, a)
	}
	switch at := a.(type) {
	case PrimitiveType:
		if bt, ok := b.(PrimitiveType); ok && bt.Kind == at.Kind {
			return nil
		}
	case FunctionType:
		if bt, ok := b.(FunctionType); ok {
			if err := c.unify(at.Param, bt.Param); err != nil {
				return err
			}
			return c.unify(at.Return, bt.Return)
		}
	case BoxType:
		if bt, ok := b.(BoxType); ok {
			return c.unify(at.Inner, bt.Inner)
		}
	case RefType:
		if bt, ok := b.(RefType); ok && bt.Mutable == at.Mutable {
			return c.unify(at.Inner, bt.Inner)
		}
	}
	return mismatch(c.resolve(a), c.resolve(b))
}

func (c *Checker) bindVar(v TypeVariable, t Type) *unifyError {
	if other, ok := t.(TypeVariable); ok {
		if other.ID == v.ID {
			return nil
		}
		if name, constrained := c.copyOnly[v.ID]; constrained {
			if _, already := c.copyOnly[other.ID]; !already {
				c.copyOnly[other.ID] = name
			}
		}
		c.subst[v.ID] = other
		return nil
	}
	if c.occurs(v.ID, t) {
		return &unifyError{category: diag.CategoryType, message: fmt.Sprintf("infinite type: %s occurs in %s", v.Name(), c.resolve(t).Name())}
	}
	if name, constrained := c.copyOnly[v.ID]; constrained && isLinearType(t) {
		return &unifyError{
			category: diag.CategoryUseAfterMove,
			message:  fmt.Sprintf("binding '%s' is used more than once, so it cannot hold a %s", name, c.resolve(t).Name()),
		}
	}
	c.subst[v.ID] = t
	return nil
}

// requireCopyable forbids t from later resolving to a type that moves on use.
func (c *Checker) requireCopyable(t Type, name string) {
	if v, ok := c.prune(t).(TypeVariable); ok {
		if _, already := c.copyOnly[v.ID]; !already {
			c.copyOnly[v.ID] = name
		}
	}
}
