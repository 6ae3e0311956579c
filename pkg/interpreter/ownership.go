package interpreter

import (
	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/runtime"
)

// pushFrame opens a scope whose borrows end with it.
func (i *Interpreter) pushFrame() {
	i.frames = append(i.frames, nil)
}

func (i *Interpreter) recordBorrow(addr runtime.Address) {
	if len(i.frames) == 0 {
		return
	}
	top := len(i.frames) - 1
	i.frames[top] = append(i.frames[top], addr)
}

// popFrame closes the innermost scope. Borrows that result still holds move to the enclosing
// scope, or stay live when no scope encloses it; the rest are released. A nil result holds
// nothing.
func (i *Interpreter) popFrame(result runtime.Value) {
	n := len(i.frames)
	if n == 0 {
		return
	}
	top := i.frames[n-1]
	i.frames = i.frames[:n-1]
	if len(top) == 0 {
		return
	}
	var held map[runtime.Address]bool
	if result != nil {
		held = i.heldAddresses(result)
	}
	for _, addr := range top {
		if !held[addr] {
			i.store.Release(addr)
			continue
		}
		if parent := len(i.frames) - 1; parent >= 0 {
			i.frames[parent] = append(i.frames[parent], addr)
		}
	}
}

// unwindFrames releases every scope opened above depth, after a fault.
func (i *Interpreter) unwindFrames(depth int) {
	for len(i.frames) > depth {
		i.popFrame(nil)
	}
}

// heldAddresses collects the addresses v references, directly or through boxes, borrowed
// slots and closure environments.
func (i *Interpreter) heldAddresses(v runtime.Value) map[runtime.Address]bool {
	held := make(map[runtime.Address]bool)
	slots := make(map[runtime.Address]bool)
	closures := make(map[*runtime.ClosureValue]bool)

	var visit func(runtime.Value)
	follow := func(addr runtime.Address) {
		if slots[addr] {
			return
		}
		slots[addr] = true
		if inner, err := i.store.Read(addr); err == nil {
			visit(inner)
		}
	}
	visit = func(v runtime.Value) {
		switch val := v.(type) {
		case runtime.RefValue:
			held[val.Addr] = true
			follow(val.Addr)
		case runtime.MutRefValue:
			held[val.Addr] = true
			follow(val.Addr)
		case runtime.BoxValue:
			follow(val.Addr)
		case *runtime.ClosureValue:
			if closures[val] || val.Env == nil {
				return
			}
			closures[val] = true
			for _, name := range val.Env.Names() {
				if captured, err := val.Env.Get(name); err == nil {
					visit(captured)
				}
			}
		}
	}
	visit(v)
	return held
}

// boxOperand resolves the binding named by the operand of `&`, `!` and `unbox`.
func (i *Interpreter) boxOperand(env *runtime.Environment, path ast.Path, target ast.Expression) (runtime.Address, error) {
	targetPath := path.Child("target")
	val, err := i.evaluateExpression(env, targetPath, target)
	if err != nil {
		return 0, err
	}
	box, ok := val.(runtime.BoxValue)
	if !ok {
		return 0, internalError(targetPath, target, "expected a Box, found %s", val)
	}
	return box.Addr, nil
}

func (i *Interpreter) evaluateBorrowExpression(env *runtime.Environment, path ast.Path, expr *ast.BorrowExpression) (runtime.Value, error) {
	addr, err := i.boxOperand(env, path, expr.Target)
	if err != nil {
		return nil, err
	}
	if err := i.store.Borrow(addr, expr.Mutable); err != nil {
		return nil, internalError(path, expr, "%s", err.Error())
	}
	i.recordBorrow(addr)
	if expr.Mutable {
		return runtime.MutRefValue{Addr: addr}, nil
	}
	return runtime.RefValue{Addr: addr}, nil
}

func (i *Interpreter) evaluateUnboxExpression(env *runtime.Environment, path ast.Path, expr *ast.UnboxExpression) (runtime.Value, error) {
	addr, err := i.boxOperand(env, path, expr.Target)
	if err != nil {
		return nil, err
	}
	val, err := i.store.Take(addr)
	if err != nil {
		return nil, internalError(path, expr, "%s", err.Error())
	}
	i.logger.Debug("interpreter: box moved out", "addr", int(addr))
	return val, nil
}

func (i *Interpreter) evaluateDerefExpression(env *runtime.Environment, path ast.Path, expr *ast.DerefExpression) (runtime.Value, error) {
	targetPath := path.Child("target")
	ref, err := i.evaluateExpression(env, targetPath, expr.Target)
	if err != nil {
		return nil, err
	}
	var addr runtime.Address
	switch r := ref.(type) {
	case runtime.RefValue:
		addr = r.Addr
	case runtime.MutRefValue:
		addr = r.Addr
	default:
		return nil, internalError(targetPath, expr.Target, "cannot dereference %s", ref)
	}
	val, err := i.store.Read(addr)
	if err != nil {
		return nil, internalError(path, expr, "%s", err.Error())
	}
	return val, nil
}

// evaluateAssignExpression writes through a MutRef and yields the value it replaced.
func (i *Interpreter) evaluateAssignExpression(env *runtime.Environment, path ast.Path, expr *ast.AssignExpression) (runtime.Value, error) {
	targetPath := path.Child("target")
	target, err := i.evaluateExpression(env, targetPath, expr.Target)
	if err != nil {
		return nil, err
	}
	ref, ok := target.(runtime.MutRefValue)
	if !ok {
		return nil, internalError(targetPath, expr.Target, "cannot assign through %s", target)
	}
	val, err := i.evaluateExpression(env, path.Child("value"), expr.Value)
	if err != nil {
		return nil, err
	}
	previous, err := i.store.Replace(ref.Addr, val)
	if err != nil {
		return nil, internalError(path, expr, "%s", err.Error())
	}
	i.logger.Debug("interpreter: assigned", "addr", int(ref.Addr), "previous", previous.String(), "value", val.String())
	return previous, nil
}
