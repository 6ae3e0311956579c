package typechecker

import (
	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
)

// checkIdentifier handles a plain use of a name. Values of linear type move out of the
// binding; everything else is copied.
func (c *Checker) checkIdentifier(env *Environment, path ast.Path, id *ast.Identifier) (result, error) {
	b, err := c.liveBinding(env, path, id, id.Name)
	if err != nil {
		return result{}, err
	}
	t := c.prune(b.typ)

	switch {
	case isLinearType(t):
		if b.usedUnresolved {
			return result{}, diag.New(diag.CategoryUseAfterMove, path, id, "use of moved binding '%s'", b.name)
		}
		if c.isCaptured(b) {
			return result{}, diag.New(diag.CategoryBorrowConflict, path, id,
				"cannot move captured binding '%s' out of closure", b.name)
		}
		if len(b.loans) > 0 {
			return result{}, diag.New(diag.CategoryBorrowConflict, path, id,
				"cannot move '%s' while it is borrowed", b.name)
		}
		b.moved = true
		c.logger.Debug("typechecker: binding moved", "binding", b.name, "type", c.typeName(t))
		return c.record(id, result{typ: b.typ, loans: liveLoans(b.carried)}), nil
	case isTypeVariable(t):
		if b.usedUnresolved || c.isCaptured(b) {
			c.requireCopyable(t, b.name)
		}
		b.usedUnresolved = true
	}

	if c.isCaptured(b) {
		c.recordCapturedUse(b)
	}
	return c.record(id, result{typ: b.typ, loans: liveLoans(b.carried)}), nil
}

// liveBinding resolves name and rejects bindings whose value has been moved away.
func (c *Checker) liveBinding(env *Environment, path ast.Path, node ast.Node, name string) (*binding, error) {
	b, ok := env.lookup(name)
	if !ok {
		return nil, diag.New(diag.CategoryType, path, node, "undefined variable '%s'", name)
	}
	if b.moved {
		return nil, diag.New(diag.CategoryUseAfterMove, path, node, "use of moved binding '%s'", name)
	}
	return b, nil
}

// boxBinding resolves the identifier operand of `&`, `!` and `unbox`, which must name a Box.
func (c *Checker) boxBinding(env *Environment, path ast.Path, node ast.Node, target ast.Expression, form string) (*binding, BoxType, error) {
	id, ok := target.(*ast.Identifier)
	if !ok || id == nil {
		return nil, BoxType{}, diag.New(diag.CategoryType, path.Child("target"), target,
			"%s requires a binding name as its operand", form)
	}
	b, err := c.liveBinding(env, path.Child("target"), id, id.Name)
	if err != nil {
		return nil, BoxType{}, err
	}
	t := c.prune(b.typ)
	if isTypeVariable(t) {
		if uerr := c.unify(t, BoxType{Inner: c.freshVar()}); uerr != nil {
			return nil, BoxType{}, diag.New(uerr.category, path, node, "%s", uerr.message)
		}
		t = c.prune(t)
	}
	box, ok := t.(BoxType)
	if !ok {
		return nil, BoxType{}, diag.New(diag.CategoryType, path, node,
			"%s requires a Box, but '%s' has type %s", form, b.name, c.typeName(t))
	}
	if b.usedUnresolved {
		return nil, BoxType{}, diag.New(diag.CategoryUseAfterMove, path, node, "use of moved binding '%s'", b.name)
	}
	return b, box, nil
}

func (c *Checker) checkBorrowExpression(env *Environment, path ast.Path, expr *ast.BorrowExpression) (result, error) {
	form := "&"
	if expr.Mutable {
		form = "!"
	}
	b, box, err := c.boxBinding(env, path, expr, expr.Target, form)
	if err != nil {
		return result{}, err
	}
	if expr.Mutable && len(b.loans) > 0 {
		return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
			"cannot borrow '%s' as mutable while other references exist", b.name)
	}
	if !expr.Mutable && hasMutableLoan(b) {
		return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
			"cannot borrow '%s' while it is mutably borrowed", b.name)
	}
	l := c.newLoan(b, expr.Mutable)
	c.record(expr.Target, result{typ: b.typ})
	return c.record(expr, result{typ: RefType{Inner: box.Inner, Mutable: expr.Mutable}, loans: []*loan{l}}), nil
}

func (c *Checker) checkUnboxExpression(env *Environment, path ast.Path, expr *ast.UnboxExpression) (result, error) {
	b, box, err := c.boxBinding(env, path, expr, expr.Target, "unbox")
	if err != nil {
		return result{}, err
	}
	if c.isCaptured(b) {
		return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
			"cannot move captured binding '%s' out of closure", b.name)
	}
	if len(b.loans) > 0 {
		return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
			"cannot unbox '%s' while it is borrowed", b.name)
	}
	b.moved = true
	c.logger.Debug("typechecker: binding unboxed", "binding", b.name)
	c.record(expr.Target, result{typ: b.typ})

	res := result{typ: box.Inner}
	if !isScalarType(c.prune(box.Inner)) {
		res.loans = liveLoans(b.carried)
	}
	return c.record(expr, res), nil
}

// referenceOperand analyzes the operand of `@` and `:=`. A bare name is read in place so the
// reference it holds is not moved.
func (c *Checker) referenceOperand(env *Environment, path ast.Path, target ast.Expression) (result, error) {
	id, ok := target.(*ast.Identifier)
	if !ok || id == nil {
		return c.checkExpression(env, path, target)
	}
	b, err := c.liveBinding(env, path, id, id.Name)
	if err != nil {
		return result{}, err
	}
	if c.isCaptured(b) {
		c.recordCapturedUse(b)
	}
	return c.record(id, result{typ: b.typ, loans: liveLoans(b.carried)}), nil
}

func (c *Checker) checkDerefExpression(env *Environment, path ast.Path, expr *ast.DerefExpression) (result, error) {
	targetPath := path.Child("target")
	target, err := c.referenceOperand(env, targetPath, expr.Target)
	if err != nil {
		return result{}, err
	}
	t := c.prune(target.typ)
	if isTypeVariable(t) {
		// Ref or MutRef is decided once something fixes the operand's type.
		inner := c.freshVar()
		c.pendingDerefs = append(c.pendingDerefs, pendingDeref{operand: t, inner: inner, path: path, node: expr})
		return c.record(expr, result{typ: inner, loans: target.loans}), nil
	}
	ref, ok := t.(RefType)
	if !ok {
		return result{}, diag.New(diag.CategoryType, path, expr, "@ requires a Ref or MutRef, got %s", c.typeName(t))
	}
	inner := c.prune(ref.Inner)
	if isLinearType(inner) {
		return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
			"cannot move a %s out of a reference", c.typeName(inner))
	}
	if isTypeVariable(inner) {
		c.requireCopyable(inner, "@")
	}
	res := result{typ: ref.Inner}
	if !isScalarType(inner) {
		res.loans = target.loans
	}
	return c.record(expr, res), nil
}

func (c *Checker) checkAssignExpression(env *Environment, path ast.Path, expr *ast.AssignExpression) (result, error) {
	targetPath := path.Child("target")
	target, err := c.referenceOperand(env, targetPath, expr.Target)
	if err != nil {
		return result{}, err
	}
	t := c.prune(target.typ)
	if isTypeVariable(t) {
		if uerr := c.unify(t, RefType{Inner: c.freshVar(), Mutable: true}); uerr != nil {
			return result{}, diag.New(uerr.category, targetPath, expr.Target, "%s", uerr.message)
		}
		t = c.prune(t)
	}
	ref, ok := t.(RefType)
	if !ok || !ref.Mutable {
		return result{}, diag.New(diag.CategoryType, targetPath, expr.Target,
			":= requires a MutRef target, got %s", c.typeName(t))
	}

	valuePath := path.Child("value")
	value, err := c.checkExpression(env, valuePath, expr.Value)
	if err != nil {
		return result{}, err
	}
	if uerr := c.unify(ref.Inner, value.typ); uerr != nil {
		if uerr.category != diag.CategoryType {
			return result{}, diag.New(uerr.category, valuePath, expr.Value, "%s", uerr.message)
		}
		return result{}, diag.New(diag.CategoryType, valuePath, expr.Value,
			"cannot assign a %s through a %s", c.typeName(value.typ), c.typeName(t))
	}
	if len(value.loans) > 0 {
		return result{}, diag.New(diag.CategoryBorrowConflict, valuePath, expr.Value,
			"a value stored through := cannot hold a reference to '%s'", value.loans[0].target.name)
	}
	// The previous contents are handed back to the caller.
	return c.record(expr, result{typ: ref.Inner}), nil
}

// pendingDeref is an `@` whose operand type was unresolved when it was analyzed.
type pendingDeref struct {
	operand Type
	inner   Type
	path    ast.Path
	node    ast.Node
}

// settleDerefs checks the pending `@` forms whose operand type is now known. With
// useDefault set, operands still unresolved become immutable references.
func (c *Checker) settleDerefs(useDefault bool) error {
	remaining := c.pendingDerefs[:0]
	for _, p := range c.pendingDerefs {
		t := c.prune(p.operand)
		if isTypeVariable(t) {
			if !useDefault {
				remaining = append(remaining, p)
				continue
			}
			if uerr := c.unify(t, RefType{Inner: p.inner}); uerr != nil {
				return diag.New(uerr.category, p.path, p.node, "%s", uerr.message)
			}
			t = c.prune(t)
		}
		ref, ok := t.(RefType)
		if !ok {
			return diag.New(diag.CategoryType, p.path, p.node, "@ requires a Ref or MutRef, got %s", c.typeName(t))
		}
		if uerr := c.unify(ref.Inner, p.inner); uerr != nil {
			return diag.New(uerr.category, p.path, p.node, "%s", uerr.message)
		}
		if inner := c.prune(ref.Inner); isLinearType(inner) {
			return diag.New(diag.CategoryBorrowConflict, p.path, p.node,
				"cannot move a %s out of a reference", c.typeName(inner))
		}
	}
	c.pendingDerefs = remaining
	return nil
}
