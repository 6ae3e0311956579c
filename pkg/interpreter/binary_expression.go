package interpreter

import (
	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
	"borrowlisp/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateBinaryExpression(env *runtime.Environment, path ast.Path, expr *ast.BinaryExpression) (runtime.Value, error) {
	left, err := i.evaluateExpression(env, path.Child("left"), expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(env, path.Child("right"), expr.Right)
	if err != nil {
		return nil, err
	}
	switch l := left.(type) {
	case runtime.IntValue:
		if r, ok := right.(runtime.IntValue); ok {
			return evaluateIntOperation(path, expr, l.Val, r.Val)
		}
	case runtime.FloatValue:
		if r, ok := right.(runtime.FloatValue); ok {
			return evaluateFloatOperation(path, expr, l.Val, r.Val)
		}
	}
	return nil, internalError(path, expr, "operator %s cannot combine %s and %s", string(expr.Operator), left, right)
}

// floorDiv rounds toward negative infinity. The caller rules out a zero divisor.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func evaluateIntOperation(path ast.Path, expr *ast.BinaryExpression, a, b int64) (runtime.Value, error) {
	switch expr.Operator {
	case ast.OperatorAdd:
		return runtime.IntValue{Val: a + b}, nil
	case ast.OperatorSubtract:
		return runtime.IntValue{Val: a - b}, nil
	case ast.OperatorMultiply:
		return runtime.IntValue{Val: a * b}, nil
	case ast.OperatorDivide:
		if b == 0 {
			return nil, diag.New(diag.CategoryDivisionByZero, path, expr, "division by zero")
		}
		return runtime.IntValue{Val: floorDiv(a, b)}, nil
	case ast.OperatorEqual:
		return runtime.BoolValue{Val: a == b}, nil
	case ast.OperatorGreater:
		return runtime.BoolValue{Val: a > b}, nil
	case ast.OperatorLess:
		return runtime.BoolValue{Val: a < b}, nil
	case ast.OperatorGreaterEqual:
		return runtime.BoolValue{Val: a >= b}, nil
	case ast.OperatorLessEqual:
		return runtime.BoolValue{Val: a <= b}, nil
	}
	return nil, internalError(path, expr, "unsupported operator %q", string(expr.Operator))
}

func evaluateFloatOperation(path ast.Path, expr *ast.BinaryExpression, a, b float64) (runtime.Value, error) {
	switch expr.Operator {
	case ast.OperatorAdd:
		return runtime.FloatValue{Val: a + b}, nil
	case ast.OperatorSubtract:
		return runtime.FloatValue{Val: a - b}, nil
	case ast.OperatorMultiply:
		return runtime.FloatValue{Val: a * b}, nil
	case ast.OperatorDivide:
		if b == 0 {
			return nil, diag.New(diag.CategoryDivisionByZero, path, expr, "division by zero")
		}
		return runtime.FloatValue{Val: a / b}, nil
	case ast.OperatorEqual:
		return runtime.BoolValue{Val: a == b}, nil
	case ast.OperatorGreater:
		return runtime.BoolValue{Val: a > b}, nil
	case ast.OperatorLess:
		return runtime.BoolValue{Val: a < b}, nil
	case ast.OperatorGreaterEqual:
		return runtime.BoolValue{Val: a >= b}, nil
	case ast.OperatorLessEqual:
		return runtime.BoolValue{Val: a <= b}, nil
	}
	return nil, internalError(path, expr, "unsupported operator %q", string(expr.Operator))
}
