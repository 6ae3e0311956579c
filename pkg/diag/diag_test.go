package diag

import (
	"fmt"
	"testing"

	"borrowlisp/interpreter-go/pkg/ast"
)

func TestErrorString(t *testing.T) {
	node := ast.ID("x")
	ast.SetSpan(node, ast.Span{Start: ast.Position{Line: 2, Column: 4}, End: ast.Position{Line: 2, Column: 5}})
	err := New(CategoryUseAfterMove, ast.Path{"body"}, node, "use of moved binding '%s'", "x")
	want := "UseAfterMoveError at $.body (2:4): use of moved binding 'x'"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	parse := New(CategoryParse, nil, nil, "unexpected ')'")
	if got := parse.Error(); got != "ParseError: unexpected ')'" {
		t.Fatalf("parse Error() = %q", got)
	}
}

func TestCategoryOfUnwraps(t *testing.T) {
	base := New(CategoryDivisionByZero, nil, nil, "division by zero")
	wrapped := fmt.Errorf("run: %w", base)
	if CategoryOf(wrapped) != CategoryDivisionByZero {
		t.Fatalf("CategoryOf = %q", CategoryOf(wrapped))
	}
	if !Is(wrapped, CategoryDivisionByZero) || Is(nil, CategoryDivisionByZero) {
		t.Fatalf("Is mismatch")
	}
	if CategoryOf(fmt.Errorf("plain")) != "" {
		t.Fatalf("plain errors carry no category")
	}
}

func TestCategoryClassification(t *testing.T) {
	if !CategoryBorrowConflict.IsBorrowError() || CategoryType.IsBorrowError() {
		t.Fatalf("IsBorrowError mismatch")
	}
	if !CategoryParse.IsStatic() || CategoryDivisionByZero.IsStatic() || CategoryInternal.IsStatic() {
		t.Fatalf("IsStatic mismatch")
	}
}
