package typechecker

import (
	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
)

func (c *Checker) checkBinaryExpression(env *Environment, path ast.Path, expr *ast.BinaryExpression) (result, error) {
	if !expr.Operator.IsArithmetic() && !expr.Operator.IsComparison() {
		return result{}, diag.New(diag.CategoryType, path, expr, "unsupported operator %q", string(expr.Operator))
	}
	left, err := c.checkExpression(env, path.Child("left"), expr.Left)
	if err != nil {
		return result{}, err
	}
	right, err := c.checkExpression(env, path.Child("right"), expr.Right)
	if err != nil {
		return result{}, err
	}

	if uerr := c.unify(left.typ, right.typ); uerr != nil {
		if uerr.category != diag.CategoryType {
			return result{}, diag.New(uerr.category, path, expr, "%s", uerr.message)
		}
		return result{}, diag.New(diag.CategoryType, path, expr,
			"operands of %s must have the same numeric type (got %s and %s)",
			string(expr.Operator), c.typeName(left.typ), c.typeName(right.typ))
	}

	operand := c.prune(left.typ)
	if isTypeVariable(operand) {
		// Nothing fixed the operands; integers are the default numeric type.
		_ = c.unify(operand, intType)
		operand = intType
	}
	if !isNumericType(operand) {
		return result{}, diag.New(diag.CategoryType, path, expr,
			"operator %s requires Int or Float operands, got %s", string(expr.Operator), c.typeName(operand))
	}

	if expr.Operator.IsComparison() {
		return c.record(expr, result{typ: boolType}), nil
	}
	return c.record(expr, result{typ: operand}), nil
}
