package typechecker

import (
	"fmt"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
)

func (c *Checker) checkExpression(env *Environment, path ast.Path, expr ast.Expression) (result, error) {
	if ast.IsNil(expr) {
		return result{}, diag.New(diag.CategoryType, path, nil, "missing expression")
	}
	switch n := expr.(type) {
	case *ast.IntegerLiteral:
		return c.record(n, result{typ: intType}), nil
	case *ast.FloatLiteral:
		return c.record(n, result{typ: floatType}), nil
	case *ast.BooleanLiteral:
		return c.record(n, result{typ: boolType}), nil
	case *ast.Identifier:
		return c.checkIdentifier(env, path, n)
	case *ast.BinaryExpression:
		return c.checkBinaryExpression(env, path, n)
	case *ast.IfExpression:
		return c.checkIfExpression(env, path, n)
	case *ast.LambdaExpression:
		return c.checkLambdaExpression(env, path, n)
	case *ast.Application:
		return c.checkApplication(env, path, n)
	case *ast.LetExpression:
		return c.checkLetExpression(env, path, n)
	case *ast.LetRecExpression:
		return c.checkLetRecExpression(env, path, n)
	case *ast.BeginExpression:
		return c.checkBeginExpression(env, path, n)
	case *ast.BorrowExpression:
		return c.checkBorrowExpression(env, path, n)
	case *ast.BoxExpression:
		inner, err := c.checkExpression(env, path.Child("value"), n.Value)
		if err != nil {
			return result{}, err
		}
		return c.record(n, result{typ: BoxType{Inner: inner.typ}, loans: inner.loans}), nil
	case *ast.UnboxExpression:
		return c.checkUnboxExpression(env, path, n)
	case *ast.DerefExpression:
		return c.checkDerefExpression(env, path, n)
	case *ast.AssignExpression:
		return c.checkAssignExpression(env, path, n)
	case *ast.DisplayExpression:
		return c.checkDisplayExpression(env, path, n)
	case *ast.DebugExpression:
		inner, err := c.checkExpression(env, path.Child("value"), n.Value)
		if err != nil {
			return result{}, err
		}
		return c.record(n, inner), nil
	default:
		return result{}, diag.New(diag.CategoryType, path, expr, "unsupported expression %s", expr.NodeType())
	}
}

func (c *Checker) checkIfExpression(env *Environment, path ast.Path, expr *ast.IfExpression) (result, error) {
	condPath := path.Child("cond")
	cond, err := c.checkExpression(env, condPath, expr.Condition)
	if err != nil {
		return result{}, err
	}
	if uerr := c.unify(cond.typ, boolType); uerr != nil {
		return result{}, diag.New(diag.CategoryType, condPath, expr.Condition,
			"if condition must be Bool, got %s", c.typeName(cond.typ))
	}

	entry := c.snapshot(env)
	thenPath := path.Child("then")
	c.pushFrame()
	thenRes, err := c.checkExpression(env, thenPath, expr.Then)
	if err != nil {
		return result{}, err
	}
	if thenRes, err = c.popFrame(thenPath, expr.Then, thenRes); err != nil {
		return result{}, err
	}
	afterThen := entry.current()
	entry.restore()

	elsePath := path.Child("else")
	c.pushFrame()
	elseRes, err := c.checkExpression(env, elsePath, expr.Else)
	if err != nil {
		return result{}, err
	}
	if elseRes, err = c.popFrame(elsePath, expr.Else, elseRes); err != nil {
		return result{}, err
	}
	afterThen.merge()

	if uerr := c.unify(thenRes.typ, elseRes.typ); uerr != nil {
		if uerr.category != diag.CategoryType {
			return result{}, diag.New(uerr.category, path, expr, "%s", uerr.message)
		}
		return result{}, diag.New(diag.CategoryType, path, expr,
			"if branches must have the same type (got %s and %s)", c.typeName(thenRes.typ), c.typeName(elseRes.typ))
	}
	return c.record(expr, result{typ: thenRes.typ, loans: unionLoans(thenRes.loans, elseRes.loans)}), nil
}

func (c *Checker) checkLambdaExpression(env *Environment, path ast.Path, expr *ast.LambdaExpression) (result, error) {
	if expr.Param == nil || expr.Param.Name == "" {
		return result{}, diag.New(diag.CategoryType, path, expr, "lambda requires a parameter name")
	}
	var paramType Type
	if expr.ParamType != nil {
		declared, err := c.typeFromExpression(path, expr.ParamType)
		if err != nil {
			return result{}, err
		}
		paramType = declared
	} else {
		paramType = c.freshVar()
	}

	ctx := c.pushLambda()
	bodyEnv := env.Extend()
	param := &binding{name: expr.Param.Name, typ: paramType, node: expr.Param, depth: ctx.depth}
	bodyEnv.define(param)
	c.logger.Debug("typechecker: enter lambda", "param", param.name, "depth", ctx.depth)

	bodyPath := path.Child("body")
	c.pushFrame()
	body, err := c.checkExpression(bodyEnv, bodyPath, expr.Body)
	if err != nil {
		c.popLambda()
		return result{}, err
	}
	if body, err = c.popFrame(bodyPath, expr.Body, body, param); err != nil {
		c.popLambda()
		return result{}, err
	}
	if len(body.loans) > 0 {
		c.popLambda()
		return result{}, diag.New(diag.CategoryBorrowConflict, bodyPath, expr.Body,
			"lambda body cannot return a reference to captured binding '%s'", body.loans[0].target.name)
	}
	c.popLambda()

	// The closure keeps the borrows its body takes on captured bindings.
	var held []*loan
	for _, target := range ctx.order {
		mutable := ctx.borrows[target]
		if target.moved {
			return result{}, diag.New(diag.CategoryUseAfterMove, path, expr,
				"closure borrows moved binding '%s'", target.name)
		}
		if mutable && len(target.loans) > 0 {
			return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
				"closure cannot borrow '%s' as mutable while other references exist", target.name)
		}
		if !mutable && hasMutableLoan(target) {
			return result{}, diag.New(diag.CategoryBorrowConflict, path, expr,
				"closure cannot borrow '%s' while it is mutably borrowed", target.name)
		}
		held = append(held, c.newLoan(target, mutable))
	}
	held = unionLoans(held, ctx.carried)
	c.logger.Debug("typechecker: exit lambda", "param", param.name, "held_loans", len(held))
	return c.record(expr, result{typ: FunctionType{Param: paramType, Return: body.typ}, loans: held}), nil
}

func (c *Checker) checkApplication(env *Environment, path ast.Path, expr *ast.Application) (result, error) {
	fnPath := path.Child("func")
	fn, err := c.checkExpression(env, fnPath, expr.Func)
	if err != nil {
		return result{}, err
	}
	argPath := path.Child("arg")
	arg, err := c.checkExpression(env, argPath, expr.Arg)
	if err != nil {
		return result{}, err
	}

	ret := Type(c.freshVar())
	switch ft := c.prune(fn.typ).(type) {
	case FunctionType:
		if uerr := c.unify(ft.Param, arg.typ); uerr != nil {
			if uerr.category != diag.CategoryType {
				return result{}, diag.New(uerr.category, argPath, expr.Arg, "%s", uerr.message)
			}
			return result{}, diag.New(diag.CategoryType, argPath, expr.Arg,
				"argument type mismatch: expected %s, got %s", c.typeName(ft.Param), c.typeName(arg.typ))
		}
		ret = ft.Return
	case TypeVariable:
		if uerr := c.unify(ft, FunctionType{Param: arg.typ, Return: ret}); uerr != nil {
			return result{}, diag.New(uerr.category, fnPath, expr.Func, "%s", uerr.message)
		}
	default:
		return result{}, diag.New(diag.CategoryType, fnPath, expr.Func,
			"cannot apply a value of type %s", c.typeName(fn.typ))
	}
	if err := c.settleDerefs(false); err != nil {
		return result{}, err
	}

	res := result{typ: ret}
	if !isScalarType(c.prune(ret)) {
		res.loans = unionLoans(fn.loans, arg.loans)
	}
	return c.record(expr, res), nil
}

func (c *Checker) checkLetExpression(env *Environment, path ast.Path, expr *ast.LetExpression) (result, error) {
	if expr.ID == nil || expr.ID.Name == "" {
		return result{}, diag.New(diag.CategoryType, path, expr, "let requires a binding name")
	}
	c.pushFrame()
	valuePath := path.Child("value")
	value, err := c.checkExpression(env, valuePath, expr.Value)
	if err != nil {
		return result{}, err
	}
	bodyEnv := env.Extend()
	b := &binding{name: expr.ID.Name, typ: value.typ, node: expr.ID, carried: value.loans, depth: c.lambdaDepth()}
	bodyEnv.define(b)

	bodyPath := path.Child("body")
	body, err := c.checkExpression(bodyEnv, bodyPath, expr.Body)
	if err != nil {
		return result{}, err
	}
	body, err = c.popFrame(bodyPath, expr.Body, body, b)
	if err != nil {
		return result{}, err
	}
	return c.record(expr, body), nil
}

func (c *Checker) checkLetRecExpression(env *Environment, path ast.Path, expr *ast.LetRecExpression) (result, error) {
	if expr.ID == nil || expr.ID.Name == "" {
		return result{}, diag.New(diag.CategoryType, path, expr, "let-rec requires a binding name")
	}
	name := expr.ID.Name
	valuePath := path.Child("value")
	if _, isLambda := expr.Value.(*ast.LambdaExpression); !isLambda && ast.ReferencesFree(expr.Value, name) {
		return result{}, diag.New(diag.CategoryType, valuePath, expr.Value, "'%s' used before fully bound", name)
	}

	c.pushFrame()
	bodyEnv := env.Extend()
	b := &binding{name: name, typ: c.freshVar(), node: expr.ID, depth: c.lambdaDepth()}
	bodyEnv.define(b)

	value, err := c.checkExpression(bodyEnv, valuePath, expr.Value)
	if err != nil {
		return result{}, err
	}
	if uerr := c.unify(b.typ, value.typ); uerr != nil {
		if uerr.category != diag.CategoryType {
			return result{}, diag.New(uerr.category, valuePath, expr.Value, "%s", uerr.message)
		}
		return result{}, diag.New(diag.CategoryType, valuePath, expr.Value,
			"recursive binding '%s' is used as %s but defined as %s", name, c.typeName(b.typ), c.typeName(value.typ))
	}
	b.carried = value.loans

	bodyPath := path.Child("body")
	body, err := c.checkExpression(bodyEnv, bodyPath, expr.Body)
	if err != nil {
		return result{}, err
	}
	body, err = c.popFrame(bodyPath, expr.Body, body, b)
	if err != nil {
		return result{}, err
	}
	return c.record(expr, body), nil
}

func (c *Checker) checkBeginExpression(env *Environment, path ast.Path, expr *ast.BeginExpression) (result, error) {
	if len(expr.Body) == 0 {
		return result{}, diag.New(diag.CategoryType, path, expr, "begin requires at least one expression")
	}
	var last result
	for idx, sub := range expr.Body {
		subPath := path.Child(ast.BeginLabel(idx))
		c.pushFrame()
		res, err := c.checkExpression(env, subPath, sub)
		if err != nil {
			return result{}, err
		}
		if idx < len(expr.Body)-1 {
			// Intermediate values are discarded, so nothing they borrow survives.
			res.loans = nil
		}
		if res, err = c.popFrame(subPath, sub, res); err != nil {
			return result{}, err
		}
		last = res
	}
	return c.record(expr, last), nil
}

func (c *Checker) checkDisplayExpression(env *Environment, path ast.Path, expr *ast.DisplayExpression) (result, error) {
	valuePath := path.Child("value")
	inner, err := c.checkExpression(env, valuePath, expr.Value)
	if err != nil {
		return result{}, err
	}
	t := c.prune(inner.typ)
	if isTypeVariable(t) {
		_ = c.unify(t, intType)
		t = intType
	}
	if _, ok := t.(PrimitiveType); !ok {
		return result{}, diag.New(diag.CategoryType, valuePath, expr.Value,
			"display requires an Int, Float or Bool, got %s; use debug instead", c.typeName(t))
	}
	return c.record(expr, inner), nil
}

func (c *Checker) typeFromExpression(path ast.Path, expr ast.TypeExpression) (Type, error) {
	if ast.IsNil(expr) {
		return nil, diag.New(diag.CategoryType, path, nil, "missing type annotation")
	}
	switch t := expr.(type) {
	case *ast.SimpleTypeExpression:
		switch t.Name {
		case "Int":
			return intType, nil
		case "Float":
			return floatType, nil
		case "Bool":
			return boolType, nil
		}
		return nil, diag.New(diag.CategoryType, path, expr, "unknown type '%s'", t.Name)
	case *ast.GenericTypeExpression:
		inner, err := c.typeFromExpression(path, t.Argument)
		if err != nil {
			return nil, err
		}
		switch t.Base {
		case "Box":
			return BoxType{Inner: inner}, nil
		case "Ref":
			return RefType{Inner: inner}, nil
		case "MutRef":
			return RefType{Inner: inner, Mutable: true}, nil
		}
		return nil, diag.New(diag.CategoryType, path, expr, "unknown type constructor '%s'", t.Base)
	case *ast.FunctionTypeExpression:
		param, err := c.typeFromExpression(path, t.Param)
		if err != nil {
			return nil, err
		}
		ret, err := c.typeFromExpression(path, t.Result)
		if err != nil {
			return nil, err
		}
		return FunctionType{Param: param, Return: ret}, nil
	default:
		return nil, diag.New(diag.CategoryType, path, expr, "unsupported type expression %s", fmt.Sprint(expr.NodeType()))
	}
}
