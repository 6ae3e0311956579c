package diag

import (
	"errors"
	"fmt"
	"strings"

	"borrowlisp/interpreter-go/pkg/ast"
)

// Category classifies a failure for callers and the CLI.
type Category string

const (
	CategoryParse          Category = "ParseError"
	CategoryType           Category = "TypeError"
	CategoryUseAfterMove   Category = "UseAfterMoveError"
	CategoryBorrowConflict Category = "BorrowConflictError"
	CategoryDivisionByZero Category = "DivisionByZeroFault"
	// CategoryInternal marks evaluator invariant violations; analyzed programs never raise it.
	CategoryInternal Category = "InternalError"
)

// IsBorrowError reports whether the category belongs to the ownership discipline.
func (c Category) IsBorrowError() bool {
	return c == CategoryUseAfterMove || c == CategoryBorrowConflict
}

// IsStatic reports whether the category is raised before evaluation starts.
func (c Category) IsStatic() bool {
	switch c {
	case CategoryParse, CategoryType, CategoryUseAfterMove, CategoryBorrowConflict:
		return true
	}
	return false
}

// Error is the structured failure shared by the reader, analyzer and evaluator.
type Error struct {
	Category Category
	Path     ast.Path
	Span     ast.Span
	Message  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Category))
	if e.Category != CategoryParse {
		b.WriteString(" at ")
		b.WriteString(e.Path.String())
	}
	if !e.Span.IsZero() {
		fmt.Fprintf(&b, " (%d:%d)", e.Span.Start.Line, e.Span.Start.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// New builds an error located at node (which may be nil) reached through path.
func New(category Category, path ast.Path, node ast.Node, format string, args ...any) *Error {
	err := &Error{Category: category, Path: path, Message: fmt.Sprintf(format, args...)}
	if !ast.IsNil(node) {
		err.Span = node.Span()
	}
	return err
}

// CategoryOf extracts the category from err, looking through wrapping. It returns "" when err
// does not carry a *Error.
func CategoryOf(err error) Category {
	var d *Error
	if errors.As(err, &d) {
		return d.Category
	}
	return ""
}

// Is reports whether err carries a *Error of the given category.
func Is(err error, category Category) bool {
	return err != nil && CategoryOf(err) == category
}
