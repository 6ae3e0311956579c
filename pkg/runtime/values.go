package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"borrowlisp/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindClosure
	KindBox
	KindRef
	KindMutRef
	KindMoved
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindClosure:
		return "Closure"
	case KindBox:
		return "Box"
	case KindRef:
		return "Ref"
	case KindMutRef:
		return "MutRef"
	case KindMoved:
		return "Moved"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. String renders the
// `TypeName(contents)` form without following heap addresses.
type Value interface {
	Kind() Kind
	String() string
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// IntValue is a 64-bit signed integer; arithmetic wraps on overflow.
type IntValue struct {
	Val int64
}

func (v IntValue) Kind() Kind     { return KindInt }
func (v IntValue) String() string { return "Int(" + strconv.FormatInt(v.Val, 10) + ")" }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind     { return KindFloat }
func (v FloatValue) String() string { return "Float(" + FormatFloat(v.Val) + ")" }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind     { return KindBool }
func (v BoolValue) String() string { return "Bool(" + strconv.FormatBool(v.Val) + ")" }

// FormatFloat renders a float without exponent notation. Integral values keep a ".0" so they
// read differently from Ints.
func FormatFloat(f float64) string {
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsRune(text, '.') {
		return text
	}
	return text + ".0"
}

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

// ClosureValue pairs a lambda with the environment it was created in. The captured
// environment is immutable, so later bindings never leak into the closure.
type ClosureValue struct {
	Param string
	Body  ast.Expression
	Env   *Environment
	// BodyPath locates Body in the tree the lambda was read from.
	BodyPath ast.Path
}

func (v *ClosureValue) Kind() Kind     { return KindClosure }
func (v *ClosureValue) String() string { return "Closure(" + v.Param + ")" }

//-----------------------------------------------------------------------------
// Heap handles
//-----------------------------------------------------------------------------

// Address identifies a Store slot. Addresses are allocated monotonically and never reused.
type Address int

func (a Address) String() string { return strconv.Itoa(int(a)) }

type BoxValue struct {
	Addr Address
}

func (v BoxValue) Kind() Kind     { return KindBox }
func (v BoxValue) String() string { return "Box(" + v.Addr.String() + ")" }

type RefValue struct {
	Addr Address
}

func (v RefValue) Kind() Kind     { return KindRef }
func (v RefValue) String() string { return "Ref(" + v.Addr.String() + ")" }

type MutRefValue struct {
	Addr Address
}

func (v MutRefValue) Kind() Kind     { return KindMutRef }
func (v MutRefValue) String() string { return "MutRef(" + v.Addr.String() + ")" }

// MovedValue marks a slot whose content was relocated; it is never a legal operand.
type MovedValue struct{}

func (MovedValue) Kind() Kind     { return KindMoved }
func (MovedValue) String() string { return "Moved" }

// AddressOf returns the heap address carried by a Box, Ref or MutRef.
func AddressOf(v Value) (Address, bool) {
	switch h := v.(type) {
	case BoxValue:
		return h.Addr, true
	case RefValue:
		return h.Addr, true
	case MutRefValue:
		return h.Addr, true
	default:
		return 0, false
	}
}
