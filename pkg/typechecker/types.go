package typechecker

import "strconv"

// Type represents a type understood by the checker.
type Type interface {
	Name() string
}

type PrimitiveKind string

const (
	PrimitiveInt   PrimitiveKind = "Int"
	PrimitiveFloat PrimitiveKind = "Float"
	PrimitiveBool  PrimitiveKind = "Bool"
)

type PrimitiveType struct {
	Kind PrimitiveKind
}

func (p PrimitiveType) Name() string { return string(p.Kind) }

var (
	intType   = PrimitiveType{Kind: PrimitiveInt}
	floatType = PrimitiveType{Kind: PrimitiveFloat}
	boolType  = PrimitiveType{Kind: PrimitiveBool}
)

// FunctionType is the type of a closure taking Param and producing Return.
type FunctionType struct {
	Param  Type
	Return Type
}

func (f FunctionType) Name() string {
	return "Func(" + f.Param.Name() + " -> " + f.Return.Name() + ")"
}

// BoxType is an owned heap cell holding Inner.
type BoxType struct {
	Inner Type
}

func (b BoxType) Name() string { return "Box(" + b.Inner.Name() + ")" }

// RefType is a borrow of a Box holding Inner; Mutable distinguishes `!` from `&`.
type RefType struct {
	Inner   Type
	Mutable bool
}

func (r RefType) Name() string {
	if r.Mutable {
		return "MutRef(" + r.Inner.Name() + ")"
	}
	return "Ref(" + r.Inner.Name() + ")"
}

// TypeVariable stands for a type not yet fixed by inference.
type TypeVariable struct {
	ID int
}

func (v TypeVariable) Name() string { return "t" + strconv.Itoa(v.ID) }

// Int, Float and Bool expose the primitive types for callers seeding an Environment.
func Int() Type   { return intType }
func Float() Type { return floatType }
func Bool() Type  { return boolType }

func Box(inner Type) Type { return BoxType{Inner: inner} }

func Ref(inner Type) Type { return RefType{Inner: inner} }

func MutRef(inner Type) Type { return RefType{Inner: inner, Mutable: true} }

func Func(param, ret Type) Type { return FunctionType{Param: param, Return: ret} }

func isNumericType(t Type) bool {
	p, ok := t.(PrimitiveType)
	return ok && (p.Kind == PrimitiveInt || p.Kind == PrimitiveFloat)
}

func isTypeVariable(t Type) bool {
	_, ok := t.(TypeVariable)
	return ok
}

// isLinearType reports whether values of t move on plain use. The type must already be pruned.
func isLinearType(t Type) bool {
	switch tt := t.(type) {
	case BoxType:
		return true
	case RefType:
		return tt.Mutable
	}
	return false
}

// isScalarType reports whether values of t can never carry a borrow.
func isScalarType(t Type) bool {
	_, ok := t.(PrimitiveType)
	return ok
}
