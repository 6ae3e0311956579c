package ast

import (
	"strconv"
	"strings"
)

// Path locates a node inside an expression tree as the labelled edges taken from the root,
// rendered like `$.body.func.then`. The zero value is the root.
type Path []string

// Child returns a new path extended by one edge; the receiver is left untouched.
func (p Path) Child(label string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = label
	return out
}

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return "$." + strings.Join(p, ".")
}

// Child pairs a sub-expression with the edge label leading to it.
type Child struct {
	Label string
	Expr  Expression
}

// Children lists the direct sub-expressions of an expression in evaluation order.
func Children(expr Expression) []Child {
	if IsNil(expr) {
		return nil
	}
	switch n := expr.(type) {
	case *BinaryExpression:
		return []Child{{"left", n.Left}, {"right", n.Right}}
	case *IfExpression:
		return []Child{{"cond", n.Condition}, {"then", n.Then}, {"else", n.Else}}
	case *LambdaExpression:
		return []Child{{"body", n.Body}}
	case *Application:
		return []Child{{"func", n.Func}, {"arg", n.Arg}}
	case *LetExpression:
		return []Child{{"value", n.Value}, {"body", n.Body}}
	case *LetRecExpression:
		return []Child{{"value", n.Value}, {"body", n.Body}}
	case *BeginExpression:
		out := make([]Child, len(n.Body))
		for idx, sub := range n.Body {
			out[idx] = Child{Label: BeginLabel(idx), Expr: sub}
		}
		return out
	case *BorrowExpression:
		return []Child{{"target", n.Target}}
	case *BoxExpression:
		return []Child{{"value", n.Value}}
	case *UnboxExpression:
		return []Child{{"target", n.Target}}
	case *DerefExpression:
		return []Child{{"target", n.Target}}
	case *AssignExpression:
		return []Child{{"target", n.Target}, {"value", n.Value}}
	case *DisplayExpression:
		return []Child{{"value", n.Value}}
	case *DebugExpression:
		return []Child{{"value", n.Value}}
	default:
		return nil
	}
}

// BeginLabel is the path label of the idx-th expression of a begin form.
func BeginLabel(idx int) string {
	return "body[" + strconv.Itoa(idx) + "]"
}

// Walk visits expr and its descendants in pre-order. Returning false from visit skips the
// node's children.
func Walk(expr Expression, visit func(Expression) bool) {
	if IsNil(expr) {
		return
	}
	if !visit(expr) {
		return
	}
	for _, child := range Children(expr) {
		Walk(child.Expr, visit)
	}
}

// ReferencesFree reports whether name occurs free in expr, honouring shadowing by lambda
// parameters and let bindings.
func ReferencesFree(expr Expression, name string) bool {
	found := false
	var visit func(Expression) bool
	visit = func(e Expression) bool {
		if found {
			return false
		}
		switch n := e.(type) {
		case *Identifier:
			if n.Name == name {
				found = true
			}
			return false
		case *LambdaExpression:
			if n.Param != nil && n.Param.Name == name {
				return false
			}
		case *LetExpression:
			Walk(n.Value, visit)
			if n.ID == nil || n.ID.Name != name {
				Walk(n.Body, visit)
			}
			return false
		case *LetRecExpression:
			if n.ID != nil && n.ID.Name == name {
				return false
			}
		}
		return true
	}
	Walk(expr, visit)
	return found
}
