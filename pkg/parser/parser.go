// Package parser reads borrowlisp source text into pkg/ast expressions.
package parser

import (
	"errors"
	"strconv"
	"strings"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
)

// IncompleteError reports input that ended inside an unfinished form. The REPL uses it to keep
// reading continuation lines.
type IncompleteError struct {
	Err *diag.Error
}

func (e *IncompleteError) Error() string { return e.Err.Error() }
func (e *IncompleteError) Unwrap() error { return e.Err }

// IsIncomplete reports whether err means more input could complete the source.
func IsIncomplete(err error) bool {
	var inc *IncompleteError
	return errors.As(err, &inc)
}

// sexp is one datum of the surface syntax before it is given meaning.
type sexp struct {
	atom   string
	list   []*sexp
	isList bool
	span   ast.Span
}

func parseError(span ast.Span, format string, args ...any) *diag.Error {
	err := diag.New(diag.CategoryParse, nil, nil, format, args...)
	err.Span = span
	return err
}

// ParseAll reads every top-level form in source.
func ParseAll(source string) ([]ast.Expression, error) {
	data, err := read(source)
	if err != nil {
		return nil, err
	}
	exprs := make([]ast.Expression, 0, len(data))
	for _, datum := range data {
		expr, err := toExpression(datum)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

// Parse reads exactly one expression from source.
func Parse(source string) (ast.Expression, error) {
	exprs, err := ParseAll(source)
	if err != nil {
		return nil, err
	}
	switch len(exprs) {
	case 0:
		return nil, &IncompleteError{Err: parseError(ast.Span{}, "expected an expression, found end of input")}
	case 1:
		return exprs[0], nil
	default:
		return nil, parseError(exprs[1].Span(), "expected a single expression, found %d", len(exprs))
	}
}

func read(source string) ([]*sexp, error) {
	lex := newLexer(source)
	var out []*sexp
	for {
		tok := lex.next()
		if tok.kind == tokenEOF {
			return out, nil
		}
		datum, err := readDatum(lex, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, datum)
	}
}

func readDatum(lex *lexer, tok token) (*sexp, error) {
	switch tok.kind {
	case tokenAtom:
		return &sexp{atom: tok.text, span: ast.Span{Start: tok.start, End: tok.end}}, nil
	case tokenRParen:
		return nil, parseError(ast.Span{Start: tok.start, End: tok.end}, "unexpected ')'")
	case tokenLParen:
		list := &sexp{isList: true}
		for {
			next := lex.next()
			switch next.kind {
			case tokenEOF:
				return nil, &IncompleteError{Err: parseError(ast.Span{Start: tok.start, End: next.end},
					"unexpected end of input: '(' opened here is never closed")}
			case tokenRParen:
				list.span = ast.Span{Start: tok.start, End: next.end}
				return list, nil
			}
			item, err := readDatum(lex, next)
			if err != nil {
				return nil, err
			}
			list.list = append(list.list, item)
		}
	}
	return nil, parseError(ast.Span{Start: tok.start, End: tok.end}, "unexpected end of input")
}

var reserved = map[string]bool{
	"if": true, "lambda": true, "let": true, "let-rec": true, "begin": true, "box": true,
	"unbox": true, "display": true, "debug": true, "&": true, "!": true, "@": true, ":=": true,
	"true": true, "false": true,
}

func isNumeric(text string) bool {
	body := strings.TrimPrefix(strings.TrimPrefix(text, "-"), "+")
	return body != "" && (body[0] >= '0' && body[0] <= '9' || body[0] == '.' && len(body) > 1)
}

func toAtom(d *sexp) (ast.Expression, error) {
	var expr ast.Expression
	switch {
	case d.atom == "true":
		expr = ast.NewBooleanLiteral(true)
	case d.atom == "false":
		expr = ast.NewBooleanLiteral(false)
	case isNumeric(d.atom) && strings.ContainsAny(d.atom, ".eE"):
		f, err := strconv.ParseFloat(d.atom, 64)
		if err != nil {
			return nil, parseError(d.span, "invalid float literal %q", d.atom)
		}
		expr = ast.NewFloatLiteral(f)
	case isNumeric(d.atom):
		n, err := strconv.ParseInt(d.atom, 10, 64)
		if err != nil {
			return nil, parseError(d.span, "invalid integer literal %q", d.atom)
		}
		expr = ast.NewIntegerLiteral(n)
	default:
		if _, isOp := ast.LookupOperator(d.atom); isOp || reserved[d.atom] {
			return nil, parseError(d.span, "'%s' cannot be used as a value", d.atom)
		}
		expr = ast.NewIdentifier(d.atom)
	}
	ast.SetSpan(expr, d.span)
	return expr, nil
}

func toIdentifier(d *sexp, role string) (*ast.Identifier, error) {
	if d.isList {
		return nil, parseError(d.span, "expected a name for %s", role)
	}
	expr, err := toAtom(d)
	if err != nil {
		return nil, err
	}
	id, ok := expr.(*ast.Identifier)
	if !ok {
		return nil, parseError(d.span, "expected a name for %s, found %q", role, d.atom)
	}
	return id, nil
}

func arity(d *sexp, form string, want int) error {
	if got := len(d.list) - 1; got != want {
		return parseError(d.span, "%s expects %d operand(s), got %d", form, want, got)
	}
	return nil
}

func toExpression(d *sexp) (ast.Expression, error) {
	if !d.isList {
		return toAtom(d)
	}
	if len(d.list) == 0 {
		return nil, parseError(d.span, "empty form")
	}
	head := d.list[0]
	if head.isList {
		return toApplication(d)
	}

	var (
		expr ast.Expression
		err  error
	)
	if op, ok := ast.LookupOperator(head.atom); ok {
		expr, err = toBinary(d, op)
	} else {
		switch head.atom {
		case "if":
			expr, err = toIf(d)
		case "lambda":
			expr, err = toLambda(d)
		case "let", "let-rec":
			expr, err = toLet(d, head.atom == "let-rec")
		case "begin":
			expr, err = toBegin(d)
		case "&", "!", "box", "unbox", "@", "display", "debug":
			expr, err = toUnary(d, head.atom)
		case ":=":
			expr, err = toAssign(d)
		default:
			return toApplication(d)
		}
	}
	if err != nil {
		return nil, err
	}
	ast.SetSpan(expr, d.span)
	return expr, nil
}

func toOperands(d *sexp) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(d.list)-1)
	for _, item := range d.list[1:] {
		expr, err := toExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func toBinary(d *sexp, op ast.BinaryOperator) (ast.Expression, error) {
	if err := arity(d, string(op), 2); err != nil {
		return nil, err
	}
	operands, err := toOperands(d)
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryExpression(op, operands[0], operands[1]), nil
}

func toIf(d *sexp) (ast.Expression, error) {
	if err := arity(d, "if", 3); err != nil {
		return nil, err
	}
	operands, err := toOperands(d)
	if err != nil {
		return nil, err
	}
	return ast.NewIfExpression(operands[0], operands[1], operands[2]), nil
}

// toLambda reads (lambda (x y) body), producing one curried lambda per parameter. A parameter may
// carry a type: (lambda ((x Int)) body).
func toLambda(d *sexp) (ast.Expression, error) {
	if err := arity(d, "lambda", 2); err != nil {
		return nil, err
	}
	params := d.list[1]
	if !params.isList || len(params.list) == 0 {
		return nil, parseError(params.span, "lambda expects a non-empty parameter list")
	}
	body, err := toExpression(d.list[2])
	if err != nil {
		return nil, err
	}
	for idx := len(params.list) - 1; idx >= 0; idx-- {
		param := params.list[idx]
		var (
			id       *ast.Identifier
			declared ast.TypeExpression
		)
		if param.isList {
			if len(param.list) != 2 {
				return nil, parseError(param.span, "typed parameter must look like (name Type)")
			}
			if id, err = toIdentifier(param.list[0], "lambda parameter"); err != nil {
				return nil, err
			}
			if declared, err = toType(param.list[1]); err != nil {
				return nil, err
			}
		} else if id, err = toIdentifier(param, "lambda parameter"); err != nil {
			return nil, err
		}
		lambda := ast.NewLambdaExpression(id, declared, body)
		if idx > 0 {
			ast.SetSpan(lambda, ast.Span{Start: param.span.Start, End: d.span.End})
		}
		body = lambda
	}
	return body, nil
}

// toLet reads (let (x e) body) or (let ((x e) (y f)) body); several bindings nest left to right.
func toLet(d *sexp, recursive bool) (ast.Expression, error) {
	form := "let"
	if recursive {
		form = "let-rec"
	}
	if err := arity(d, form, 2); err != nil {
		return nil, err
	}
	head := d.list[1]
	if !head.isList || len(head.list) == 0 {
		return nil, parseError(head.span, "%s expects a binding like (name value)", form)
	}
	bindings := []*sexp{head}
	if head.list[0].isList {
		bindings = head.list
	}
	body, err := toExpression(d.list[2])
	if err != nil {
		return nil, err
	}
	for idx := len(bindings) - 1; idx >= 0; idx-- {
		binding := bindings[idx]
		if !binding.isList || len(binding.list) != 2 {
			return nil, parseError(binding.span, "%s binding must look like (name value)", form)
		}
		id, err := toIdentifier(binding.list[0], form+" binding")
		if err != nil {
			return nil, err
		}
		value, err := toExpression(binding.list[1])
		if err != nil {
			return nil, err
		}
		var expr ast.Expression
		if recursive {
			expr = ast.NewLetRecExpression(id, value, body)
		} else {
			expr = ast.NewLetExpression(id, value, body)
		}
		if idx > 0 {
			ast.SetSpan(expr, ast.Span{Start: binding.span.Start, End: d.span.End})
		}
		body = expr
	}
	return body, nil
}

func toBegin(d *sexp) (ast.Expression, error) {
	operands, err := toOperands(d)
	if err != nil {
		return nil, err
	}
	return ast.NewBeginExpression(operands), nil
}

func toUnary(d *sexp, form string) (ast.Expression, error) {
	if err := arity(d, form, 1); err != nil {
		return nil, err
	}
	operands, err := toOperands(d)
	if err != nil {
		return nil, err
	}
	operand := operands[0]
	switch form {
	case "&":
		return ast.NewBorrowExpression(operand, false), nil
	case "!":
		return ast.NewBorrowExpression(operand, true), nil
	case "box":
		return ast.NewBoxExpression(operand), nil
	case "unbox":
		return ast.NewUnboxExpression(operand), nil
	case "@":
		return ast.NewDerefExpression(operand), nil
	case "display":
		return ast.NewDisplayExpression(operand), nil
	default:
		return ast.NewDebugExpression(operand), nil
	}
}

func toAssign(d *sexp) (ast.Expression, error) {
	if err := arity(d, ":=", 2); err != nil {
		return nil, err
	}
	operands, err := toOperands(d)
	if err != nil {
		return nil, err
	}
	return ast.NewAssignExpression(operands[0], operands[1]), nil
}

// toApplication reads (f a b), applying f to one argument at a time.
func toApplication(d *sexp) (ast.Expression, error) {
	if len(d.list) < 2 {
		return nil, parseError(d.span, "application requires at least one argument")
	}
	fn, err := toExpression(d.list[0])
	if err != nil {
		return nil, err
	}
	for idx, item := range d.list[1:] {
		arg, err := toExpression(item)
		if err != nil {
			return nil, err
		}
		app := ast.NewApplication(fn, arg)
		span := ast.Span{Start: d.span.Start, End: item.span.End}
		if idx == len(d.list)-2 {
			span.End = d.span.End
		}
		ast.SetSpan(app, span)
		fn = app
	}
	return fn, nil
}

func toType(d *sexp) (ast.TypeExpression, error) {
	var expr ast.TypeExpression
	if !d.isList {
		if isNumeric(d.atom) || reserved[d.atom] {
			return nil, parseError(d.span, "expected a type, found %q", d.atom)
		}
		expr = ast.NewSimpleTypeExpression(d.atom)
		ast.SetSpan(expr, d.span)
		return expr, nil
	}
	if len(d.list) < 2 || d.list[0].isList {
		return nil, parseError(d.span, "malformed type")
	}
	head := d.list[0].atom
	if head == "->" {
		if len(d.list) < 3 {
			return nil, parseError(d.span, "function type needs a parameter and a result")
		}
		result, err := toType(d.list[len(d.list)-1])
		if err != nil {
			return nil, err
		}
		for idx := len(d.list) - 2; idx >= 1; idx-- {
			param, err := toType(d.list[idx])
			if err != nil {
				return nil, err
			}
			result = ast.NewFunctionTypeExpression(param, result)
		}
		ast.SetSpan(result, d.span)
		return result, nil
	}
	if len(d.list) != 2 {
		return nil, parseError(d.span, "type constructor %s takes one argument", head)
	}
	arg, err := toType(d.list[1])
	if err != nil {
		return nil, err
	}
	expr = ast.NewGenericTypeExpression(head, arg)
	ast.SetSpan(expr, d.span)
	return expr, nil
}
