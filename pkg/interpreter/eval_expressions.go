package interpreter

import (
	"fmt"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
	"borrowlisp/interpreter-go/pkg/runtime"
)

func internalError(path ast.Path, node ast.Node, format string, args ...any) error {
	return diag.New(diag.CategoryInternal, path, node, format, args...)
}

func (i *Interpreter) evaluateExpression(env *runtime.Environment, path ast.Path, node ast.Expression) (runtime.Value, error) {
	if ast.IsNil(node) {
		return nil, internalError(path, nil, "missing expression")
	}
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntValue{Val: n.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.Identifier:
		val, err := env.Get(n.Name)
		if err != nil {
			return nil, internalError(path, n, "%s", err.Error())
		}
		return val, nil
	case *ast.BinaryExpression:
		return i.evaluateBinaryExpression(env, path, n)
	case *ast.IfExpression:
		return i.evaluateIfExpression(env, path, n)
	case *ast.LambdaExpression:
		if n.Param == nil {
			return nil, internalError(path, n, "lambda without parameter")
		}
		return &runtime.ClosureValue{Param: n.Param.Name, Body: n.Body, Env: env, BodyPath: path.Child("body")}, nil
	case *ast.Application:
		return i.evaluateApplication(env, path, n)
	case *ast.LetExpression:
		return i.evaluateLetExpression(env, path, n)
	case *ast.LetRecExpression:
		return i.evaluateLetRecExpression(env, path, n)
	case *ast.BeginExpression:
		return i.evaluateBeginExpression(env, path, n)
	case *ast.BoxExpression:
		val, err := i.evaluateExpression(env, path.Child("value"), n.Value)
		if err != nil {
			return nil, err
		}
		addr := i.store.Alloc(val)
		i.logger.Debug("interpreter: box allocated", "addr", int(addr), "value", val.String())
		return runtime.BoxValue{Addr: addr}, nil
	case *ast.BorrowExpression:
		return i.evaluateBorrowExpression(env, path, n)
	case *ast.UnboxExpression:
		return i.evaluateUnboxExpression(env, path, n)
	case *ast.DerefExpression:
		return i.evaluateDerefExpression(env, path, n)
	case *ast.AssignExpression:
		return i.evaluateAssignExpression(env, path, n)
	case *ast.DisplayExpression:
		return i.evaluateDisplayExpression(env, path, n)
	case *ast.DebugExpression:
		val, err := i.evaluateExpression(env, path.Child("value"), n.Value)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintln(i.out, Describe(val, i.store)); err != nil {
			return nil, err
		}
		return val, nil
	default:
		return nil, internalError(path, node, "unsupported expression %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateIfExpression(env *runtime.Environment, path ast.Path, expr *ast.IfExpression) (runtime.Value, error) {
	cond, err := i.evaluateExpression(env, path.Child("cond"), expr.Condition)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(runtime.BoolValue)
	if !ok {
		return nil, internalError(path.Child("cond"), expr.Condition, "if condition evaluated to %s", cond)
	}
	if b.Val {
		return i.evaluateExpression(env, path.Child("then"), expr.Then)
	}
	return i.evaluateExpression(env, path.Child("else"), expr.Else)
}

func (i *Interpreter) evaluateApplication(env *runtime.Environment, path ast.Path, call *ast.Application) (runtime.Value, error) {
	i.pushFrame()
	callee, err := i.evaluateExpression(env, path.Child("func"), call.Func)
	if err != nil {
		return nil, err
	}
	arg, err := i.evaluateExpression(env, path.Child("arg"), call.Arg)
	if err != nil {
		return nil, err
	}
	closure, ok := callee.(*runtime.ClosureValue)
	if !ok {
		return nil, internalError(path.Child("func"), call.Func, "cannot apply %s", callee)
	}
	i.logger.Debug("interpreter: apply", "param", closure.Param, "arg", arg.String(), "path", path.String())
	callEnv := closure.Env.Extend(closure.Param, arg)
	result, err := i.evaluateExpression(callEnv, closure.BodyPath, closure.Body)
	if err != nil {
		return nil, err
	}
	i.popFrame(result)
	return result, nil
}

func (i *Interpreter) evaluateLetExpression(env *runtime.Environment, path ast.Path, expr *ast.LetExpression) (runtime.Value, error) {
	i.pushFrame()
	val, err := i.evaluateExpression(env, path.Child("value"), expr.Value)
	if err != nil {
		return nil, err
	}
	result, err := i.evaluateExpression(env.Extend(expr.ID.Name, val), path.Child("body"), expr.Body)
	if err != nil {
		return nil, err
	}
	i.popFrame(result)
	return result, nil
}

func (i *Interpreter) evaluateLetRecExpression(env *runtime.Environment, path ast.Path, expr *ast.LetRecExpression) (runtime.Value, error) {
	i.pushFrame()
	scope := env.Reserve(expr.ID.Name)
	val, err := i.evaluateExpression(scope, path.Child("value"), expr.Value)
	if err != nil {
		return nil, err
	}
	if err := scope.Populate(expr.ID.Name, val); err != nil {
		return nil, internalError(path, expr, "%s", err.Error())
	}
	result, err := i.evaluateExpression(scope, path.Child("body"), expr.Body)
	if err != nil {
		return nil, err
	}
	i.popFrame(result)
	return result, nil
}

func (i *Interpreter) evaluateBeginExpression(env *runtime.Environment, path ast.Path, expr *ast.BeginExpression) (runtime.Value, error) {
	if len(expr.Body) == 0 {
		return nil, internalError(path, expr, "empty begin")
	}
	var last runtime.Value
	for idx, sub := range expr.Body {
		i.pushFrame()
		val, err := i.evaluateExpression(env, path.Child(ast.BeginLabel(idx)), sub)
		if err != nil {
			return nil, err
		}
		if idx < len(expr.Body)-1 {
			// Discarded values hold nothing.
			i.popFrame(nil)
		} else {
			i.popFrame(val)
		}
		last = val
	}
	return last, nil
}

func (i *Interpreter) evaluateDisplayExpression(env *runtime.Environment, path ast.Path, expr *ast.DisplayExpression) (runtime.Value, error) {
	val, err := i.evaluateExpression(env, path.Child("value"), expr.Value)
	if err != nil {
		return nil, err
	}
	text, ok := DisplayString(val)
	if !ok {
		return nil, internalError(path.Child("value"), expr.Value, "cannot display %s", val)
	}
	if _, err := fmt.Fprintln(i.out, text); err != nil {
		return nil, err
	}
	return val, nil
}
