package ast

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value)
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

// Expression helpers.

func Bin(operator string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(BinaryOperator(operator), left, right)
}

func If(condition, then, otherwise Expression) *IfExpression {
	return NewIfExpression(condition, then, otherwise)
}

func Lam(param string, body Expression) *LambdaExpression {
	return NewLambdaExpression(ID(param), nil, body)
}

func LamTyped(param string, paramType TypeExpression, body Expression) *LambdaExpression {
	return NewLambdaExpression(ID(param), paramType, body)
}

func App(fn, arg Expression) *Application {
	return NewApplication(fn, arg)
}

func Let(name string, value, body Expression) *LetExpression {
	return NewLetExpression(ID(name), value, body)
}

func LetRec(name string, value, body Expression) *LetRecExpression {
	return NewLetRecExpression(ID(name), value, body)
}

func Begin(body ...Expression) *BeginExpression {
	return NewBeginExpression(body)
}

func Ref(name string) *BorrowExpression {
	return NewBorrowExpression(ID(name), false)
}

func MutRef(name string) *BorrowExpression {
	return NewBorrowExpression(ID(name), true)
}

func Box(value Expression) *BoxExpression {
	return NewBoxExpression(value)
}

func Unbox(name string) *UnboxExpression {
	return NewUnboxExpression(ID(name))
}

func Deref(target Expression) *DerefExpression {
	return NewDerefExpression(target)
}

func Set(target, value Expression) *AssignExpression {
	return NewAssignExpression(target, value)
}

func Display(value Expression) *DisplayExpression {
	return NewDisplayExpression(value)
}

func Debug(value Expression) *DebugExpression {
	return NewDebugExpression(value)
}

// Type expression helpers.

func Ty(name string) *SimpleTypeExpression {
	return NewSimpleTypeExpression(name)
}

func TyGen(base string, argument TypeExpression) *GenericTypeExpression {
	return NewGenericTypeExpression(base, argument)
}

func TyFn(param, result TypeExpression) *FunctionTypeExpression {
	return NewFunctionTypeExpression(param, result)
}
