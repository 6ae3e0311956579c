package ast

import "testing"

func TestPathString(t *testing.T) {
	var root Path
	if got := root.String(); got != "$" {
		t.Fatalf("root path = %q, want $", got)
	}
	body := root.Child("body")
	then := body.Child("then")
	if got := then.String(); got != "$.body.then" {
		t.Fatalf("path = %q, want $.body.then", got)
	}
	if got := body.String(); got != "$.body" {
		t.Fatalf("Child mutated its receiver: %q", got)
	}
	if got := root.Child(BeginLabel(2)).String(); got != "$.body[2]" {
		t.Fatalf("begin path = %q", got)
	}
}

func TestWalkVisitsInEvaluationOrder(t *testing.T) {
	expr := If(Bool(true), Bin("+", Int(1), Int(2)), ID("x"))
	var kinds []NodeType
	Walk(expr, func(e Expression) bool {
		kinds = append(kinds, e.NodeType())
		return true
	})
	want := []NodeType{
		NodeIfExpression, NodeBooleanLiteral, NodeBinaryExpression,
		NodeIntegerLiteral, NodeIntegerLiteral, NodeIdentifier,
	}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for idx := range want {
		if kinds[idx] != want[idx] {
			t.Fatalf("visit %d = %s, want %s", idx, kinds[idx], want[idx])
		}
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	expr := Begin(Lam("x", ID("x")), Int(3))
	count := 0
	Walk(expr, func(e Expression) bool {
		count++
		_, isLambda := e.(*LambdaExpression)
		return !isLambda
	})
	if count != 3 {
		t.Fatalf("expected 3 visits, got %d", count)
	}
}

func TestChildrenLabels(t *testing.T) {
	children := Children(Set(MutRef("b"), Int(1)))
	if len(children) != 2 || children[0].Label != "target" || children[1].Label != "value" {
		t.Fatalf("unexpected children %+v", children)
	}
	if Children(Int(1)) != nil {
		t.Fatalf("literals have no children")
	}
}

func TestReferencesFree(t *testing.T) {
	cases := []struct {
		name string
		expr Expression
		want bool
	}{
		{"direct", Bin("+", ID("f"), Int(1)), true},
		{"absent", Int(1), false},
		{"shadowed by lambda", Lam("f", ID("f")), false},
		{"free inside lambda", Lam("n", App(ID("f"), ID("n"))), true},
		{"shadowed by let body", Let("f", Int(1), ID("f")), false},
		{"let value sees outer", Let("f", ID("f"), Int(1)), true},
		{"shadowed by let-rec", LetRec("f", ID("f"), Int(1)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReferencesFree(tc.expr, "f"); got != tc.want {
				t.Fatalf("ReferencesFree = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsNil(t *testing.T) {
	var missing *Identifier
	var expr Expression = missing
	if !IsNil(expr) || !IsNil(nil) || !IsNil((*FunctionTypeExpression)(nil)) {
		t.Fatalf("typed nil pointers should count as nil")
	}
	if IsNil(Int(0)) {
		t.Fatalf("a literal is not nil")
	}
	if Children(expr) != nil || !ReferencesFree(Bin("+", missing, ID("f")), "f") {
		t.Fatalf("walking past a nil child failed")
	}
}
