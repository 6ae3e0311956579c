package typechecker

import (
	"errors"
	"strings"
	"testing"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
	"borrowlisp/interpreter-go/pkg/runtime"
)

func mustCheck(t *testing.T, expr ast.Expression) *Result {
	t.Helper()
	res, err := Analyze(expr, nil)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	return res
}

func expectFailure(t *testing.T, expr ast.Expression, category diag.Category) *diag.Error {
	t.Helper()
	res, err := Analyze(expr, nil)
	if err == nil {
		t.Fatalf("expected %s, analysis succeeded with %s", category, res.Type.Name())
	}
	var d *diag.Error
	if !errors.As(err, &d) {
		t.Fatalf("expected *diag.Error, got %T: %v", err, err)
	}
	if d.Category != category {
		t.Fatalf("expected %s, got %v", category, err)
	}
	return d
}

func factorial() ast.Expression {
	body := ast.If(
		ast.Bin("=", ast.ID("n"), ast.Int(1)),
		ast.Int(1),
		ast.Bin("*", ast.ID("n"), ast.App(ast.ID("factorial"), ast.Bin("-", ast.ID("n"), ast.Int(1)))),
	)
	return ast.LetRec("factorial", ast.Lam("n", body), ast.App(ast.ID("factorial"), ast.Int(5)))
}

func TestArithmeticInfersOperandType(t *testing.T) {
	if got := mustCheck(t, ast.Bin("+", ast.Int(1), ast.Int(2))).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
	if got := mustCheck(t, ast.Bin("/", ast.Flt(1.5), ast.Flt(2))).Type.Name(); got != "Float" {
		t.Fatalf("expected Float, got %s", got)
	}
	if got := mustCheck(t, ast.Bin("<=", ast.Flt(1.5), ast.Flt(2))).Type.Name(); got != "Bool" {
		t.Fatalf("expected Bool, got %s", got)
	}
}

func TestMixedNumericOperandsAreRejected(t *testing.T) {
	d := expectFailure(t, ast.Bin("+", ast.Int(1), ast.Flt(2)), diag.CategoryType)
	if !strings.Contains(d.Message, "Int and Float") {
		t.Fatalf("unexpected message %q", d.Message)
	}
	expectFailure(t, ast.Bin("*", ast.Bool(true), ast.Bool(false)), diag.CategoryType)
}

func TestIfConditionMustBeBool(t *testing.T) {
	d := expectFailure(t, ast.If(ast.Int(1), ast.Int(2), ast.Int(3)), diag.CategoryType)
	if d.Path.String() != "$.cond" {
		t.Fatalf("expected error at $.cond, got %s", d.Path)
	}
}

func TestIfConditionIsCheckedBeforeBranches(t *testing.T) {
	d := expectFailure(t, ast.If(ast.Int(1), ast.Unbox("missing"), ast.Bool(true)), diag.CategoryType)
	if d.Path.String() != "$.cond" {
		t.Fatalf("expected condition error first, got %v", d)
	}
}

func TestIfBranchesMustAgree(t *testing.T) {
	expectFailure(t, ast.If(ast.Bool(true), ast.Int(5), ast.Flt(6)), diag.CategoryType)
	if got := mustCheck(t, ast.If(ast.Bin("=", ast.Int(1), ast.Int(1)), ast.Int(5), ast.Int(6))).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestLetRecFactorialIsInt(t *testing.T) {
	if got := mustCheck(t, factorial()).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestLetRecValueCannotReadItself(t *testing.T) {
	d := expectFailure(t, ast.LetRec("x", ast.Bin("+", ast.ID("x"), ast.Int(1)), ast.ID("x")), diag.CategoryType)
	if !strings.Contains(d.Message, "used before fully bound") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestLambdaParameterInference(t *testing.T) {
	if got := mustCheck(t, ast.Lam("x", ast.Bin("+", ast.ID("x"), ast.ID("x")))).Type.Name(); got != "Func(Int -> Int)" {
		t.Fatalf("expected Func(Int -> Int), got %s", got)
	}
	annotated := ast.LamTyped("x", ast.Ty("Float"), ast.Bin("*", ast.ID("x"), ast.Flt(2)))
	if got := mustCheck(t, annotated).Type.Name(); got != "Func(Float -> Float)" {
		t.Fatalf("expected Func(Float -> Float), got %s", got)
	}
	boxed := ast.LamTyped("b", ast.TyGen("Box", ast.Ty("Int")), ast.Unbox("b"))
	if got := mustCheck(t, boxed).Type.Name(); got != "Func(Box(Int) -> Int)" {
		t.Fatalf("expected Func(Box(Int) -> Int), got %s", got)
	}
	expectFailure(t, ast.LamTyped("x", ast.Ty("String"), ast.ID("x")), diag.CategoryType)
}

func TestApplicationChecksArgument(t *testing.T) {
	double := ast.Lam("x", ast.Bin("*", ast.ID("x"), ast.Int(2)))
	if got := mustCheck(t, ast.App(double, ast.Int(5))).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
	d := expectFailure(t, ast.App(ast.Lam("x", ast.Bin("*", ast.ID("x"), ast.Int(2))), ast.Bool(true)), diag.CategoryType)
	if d.Path.String() != "$.arg" {
		t.Fatalf("expected error at $.arg, got %s", d.Path)
	}
	expectFailure(t, ast.App(ast.Int(1), ast.Int(2)), diag.CategoryType)
}

func TestUndefinedVariable(t *testing.T) {
	d := expectFailure(t, ast.Bin("+", ast.ID("y"), ast.Int(1)), diag.CategoryType)
	if !strings.Contains(d.Message, "undefined variable 'y'") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestEmptyBeginIsRejected(t *testing.T) {
	expectFailure(t, ast.Begin(), diag.CategoryType)
}

func TestPlainUseMovesBox(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)), ast.Let("c", ast.ID("b"), ast.ID("b")))
	d := expectFailure(t, expr, diag.CategoryUseAfterMove)
	if d.Path.String() != "$.body.body" {
		t.Fatalf("expected error at $.body.body, got %s", d.Path)
	}
}

func TestUnboxTwiceIsUseAfterMove(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)), ast.Begin(ast.Unbox("b"), ast.Unbox("b")))
	d := expectFailure(t, expr, diag.CategoryUseAfterMove)
	if d.Path.String() != "$.body.body[1].target" {
		t.Fatalf("unexpected path %s", d.Path)
	}
}

func TestBoxUnboxRoundTripType(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)), ast.Unbox("b"))
	if got := mustCheck(t, expr).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestSecondMutableBorrowConflicts(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)),
		ast.Let("m", ast.MutRef("b"),
			ast.Let("n", ast.MutRef("b"), ast.Int(1))))
	d := expectFailure(t, expr, diag.CategoryBorrowConflict)
	if !strings.Contains(d.Message, "as mutable while other references exist") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestSharedBorrowWhileMutablyBorrowedConflicts(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)),
		ast.Let("m", ast.MutRef("b"), ast.Deref(ast.Ref("b"))))
	d := expectFailure(t, expr, diag.CategoryBorrowConflict)
	if !strings.Contains(d.Message, "while it is mutably borrowed") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestSharedBorrowsCoexist(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)),
		ast.Let("r", ast.Ref("b"),
			ast.Let("s", ast.Ref("b"), ast.Bin("+", ast.Deref(ast.ID("r")), ast.Deref(ast.ID("s"))))))
	if got := mustCheck(t, expr).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestBorrowsEndWithTheirScope(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)),
		ast.Begin(
			ast.Let("m", ast.MutRef("b"), ast.Set(ast.ID("m"), ast.Int(7))),
			ast.Unbox("b"),
		))
	if got := mustCheck(t, expr).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestMovingBorrowedBoxConflicts(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(5)),
		ast.Let("r", ast.Ref("b"), ast.Unbox("b")))
	expectFailure(t, expr, diag.CategoryBorrowConflict)
}

func TestReferenceCannotOutliveItsBox(t *testing.T) {
	expr := ast.Let("r",
		ast.Let("b", ast.Box(ast.Int(5)), ast.Ref("b")),
		ast.Deref(ast.ID("r")))
	d := expectFailure(t, expr, diag.CategoryBorrowConflict)
	if !strings.Contains(d.Message, "does not live long enough") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestMoveInOneBranchIsMoveAfterIf(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)),
		ast.Begin(
			ast.If(ast.Bool(true), ast.Unbox("b"), ast.Int(0)),
			ast.Unbox("b"),
		))
	expectFailure(t, expr, diag.CategoryUseAfterMove)
}

func TestBranchesStartFromTheSameState(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)),
		ast.If(ast.Bool(true), ast.Unbox("b"), ast.Unbox("b")))
	if got := mustCheck(t, expr).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestMutRefMovesOnPlainUse(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)),
		ast.Let("m", ast.MutRef("b"),
			ast.Let("n", ast.ID("m"), ast.Set(ast.ID("m"), ast.Int(2)))))
	expectFailure(t, expr, diag.CategoryUseAfterMove)
}

func TestAssignChecksHeldType(t *testing.T) {
	ok := ast.Let("b", ast.Box(ast.Int(1)), ast.Set(ast.MutRef("b"), ast.Int(2)))
	if got := mustCheck(t, ok).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
	expectFailure(t, ast.Let("b", ast.Box(ast.Int(1)), ast.Set(ast.MutRef("b"), ast.Bool(true))), diag.CategoryType)
	expectFailure(t, ast.Let("b", ast.Box(ast.Int(1)), ast.Set(ast.Ref("b"), ast.Int(2))), diag.CategoryType)
}

func TestDerefRequiresReference(t *testing.T) {
	expectFailure(t, ast.Deref(ast.Int(5)), diag.CategoryType)
	nested := ast.Let("b", ast.Box(ast.Box(ast.Int(1))), ast.Deref(ast.Ref("b")))
	expectFailure(t, nested, diag.CategoryBorrowConflict)
}

func TestDerefOfInferredParameterAcceptsEitherReference(t *testing.T) {
	deref := func() ast.Expression { return ast.Lam("r", ast.Deref(ast.ID("r"))) }

	mutable := ast.Let("x", ast.Box(ast.Int(1)), ast.App(deref(), ast.MutRef("x")))
	if got := mustCheck(t, mutable).Type.Name(); got != "Int" {
		t.Fatalf("expected Int through a MutRef, got %s", got)
	}
	shared := ast.Let("x", ast.Box(ast.Flt(1)), ast.App(deref(), ast.Ref("x")))
	if got := mustCheck(t, shared).Type.Name(); got != "Float" {
		t.Fatalf("expected Float through a Ref, got %s", got)
	}
	if got := mustCheck(t, deref()).Type.Name(); !strings.HasPrefix(got, "Func(Ref(") {
		t.Fatalf("an unapplied dereferencing lambda should default to Ref, got %s", got)
	}
	assigned := ast.Lam("r", ast.Begin(ast.Deref(ast.ID("r")), ast.Set(ast.ID("r"), ast.Int(1))))
	if got := mustCheck(t, assigned).Type.Name(); got != "Func(MutRef(Int) -> Int)" {
		t.Fatalf("expected Func(MutRef(Int) -> Int), got %s", got)
	}
}

func TestDerefOfInferredParameterChecksTheCallSite(t *testing.T) {
	d := expectFailure(t, ast.App(ast.Lam("r", ast.Deref(ast.ID("r"))), ast.Int(5)), diag.CategoryType)
	if d.Path.String() != "$.func.body" {
		t.Fatalf("expected error at $.func.body, got %s", d.Path)
	}
	nested := ast.Let("x", ast.Box(ast.Box(ast.Int(1))), ast.App(ast.Lam("r", ast.Deref(ast.ID("r"))), ast.Ref("x")))
	expectFailure(t, nested, diag.CategoryBorrowConflict)
}

func TestBorrowRequiresBox(t *testing.T) {
	expectFailure(t, ast.Let("x", ast.Int(1), ast.Ref("x")), diag.CategoryType)
	expectFailure(t, ast.Unbox("nothing"), diag.CategoryType)
}

func TestClosureCannotMoveCapturedBox(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)), ast.Lam("x", ast.Unbox("b")))
	d := expectFailure(t, expr, diag.CategoryBorrowConflict)
	if !strings.Contains(d.Message, "captured binding 'b'") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestClosureHoldsItsBorrows(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)),
		ast.Let("f", ast.Lam("x", ast.Deref(ast.Ref("b"))),
			ast.Begin(ast.Unbox("b"), ast.App(ast.ID("f"), ast.Int(0)))))
	d := expectFailure(t, expr, diag.CategoryBorrowConflict)
	if !strings.Contains(d.Message, "while it is borrowed") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestClosureBorrowsEndWithClosure(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)),
		ast.Begin(
			ast.Let("f", ast.Lam("x", ast.Deref(ast.Ref("b"))), ast.App(ast.ID("f"), ast.Int(0))),
			ast.Unbox("b"),
		))
	if got := mustCheck(t, expr).Type.Name(); got != "Int" {
		t.Fatalf("expected Int, got %s", got)
	}
}

func TestClosureCannotReturnCapturedReference(t *testing.T) {
	expr := ast.Let("b", ast.Box(ast.Int(1)), ast.Lam("x", ast.Ref("b")))
	expectFailure(t, expr, diag.CategoryBorrowConflict)
}

func TestDuplicatedParameterCannotBecomeBox(t *testing.T) {
	twice := ast.Lam("x", ast.Begin(ast.ID("x"), ast.ID("x")))
	d := expectFailure(t, ast.App(twice, ast.Box(ast.Int(1))), diag.CategoryUseAfterMove)
	if d.Path.String() != "$.arg" {
		t.Fatalf("expected error at $.arg, got %s", d.Path)
	}
}

func TestDisplayRequiresPrintableValue(t *testing.T) {
	if got := mustCheck(t, ast.Display(ast.Flt(4.5))).Type.Name(); got != "Float" {
		t.Fatalf("expected Float, got %s", got)
	}
	expectFailure(t, ast.Display(ast.Box(ast.Int(1))), diag.CategoryType)
	if got := mustCheck(t, ast.Debug(ast.Box(ast.Int(1)))).Type.Name(); got != "Box(Int)" {
		t.Fatalf("expected Box(Int), got %s", got)
	}
}

func TestInferenceMapRecordsResolvedTypes(t *testing.T) {
	param := ast.ID("x")
	use := ast.Bin("+", param, ast.Int(1))
	lam := ast.Lam("x", use)
	res := mustCheck(t, lam)
	typ, ok := res.TypeOf(use)
	if !ok || typ.Name() != "Int" {
		t.Fatalf("expected Int for body, got %#v", typ)
	}
	typ, ok = res.TypeOf(lam)
	if !ok || typ.Name() != "Func(Int -> Int)" {
		t.Fatalf("expected lambda type, got %#v", typ)
	}
}

func TestEnvironmentFactsAreNotMutated(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("b", Box(Int()))
	res, err := Analyze(ast.Unbox("b"), env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type.Name() != "Int" {
		t.Fatalf("expected Int, got %s", res.Type.Name())
	}
	after, ok := res.Environment().Fact("b")
	if !ok || after.State != runtime.StateMoved {
		t.Fatalf("expected b moved after analysis, got %#v", after)
	}
	before, ok := env.Fact("b")
	if !ok || before.State != runtime.StateOwned {
		t.Fatalf("expected caller environment untouched, got %#v", before)
	}
}

func TestCheckerIsReusable(t *testing.T) {
	checker := New()
	if _, err := checker.Check(ast.Bin("+", ast.Int(1), ast.Flt(1)), nil); err == nil {
		t.Fatalf("expected first check to fail")
	}
	res, err := checker.Check(factorial(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type.Name() != "Int" {
		t.Fatalf("expected Int, got %s", res.Type.Name())
	}
}

func TestNilChildrenAreRejected(t *testing.T) {
	var missingID *ast.Identifier
	cases := []struct {
		name string
		expr ast.Expression
		path string
	}{
		{"operand", ast.Bin("+", missingID, ast.Int(1)), "$.left"},
		{"lambda body", ast.Lam("x", (*ast.IntegerLiteral)(nil)), "$.body"},
		{"borrow target", ast.NewBorrowExpression(missingID, false), "$.target"},
		{"deref target", ast.Deref(missingID), "$.target"},
		{"let-rec value", ast.LetRec("f", (*ast.LambdaExpression)(nil), ast.Int(1)), "$.value"},
		{"parameter type", ast.LamTyped("x", (*ast.SimpleTypeExpression)(nil), ast.Int(1)), "$"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := expectFailure(t, tc.expr, diag.CategoryType)
			if d.Path.String() != tc.path {
				t.Fatalf("expected error at %s, got %s", tc.path, d.Path)
			}
		})
	}
	if _, err := Analyze((*ast.BeginExpression)(nil), nil); err == nil {
		t.Fatalf("expected a nil root to be rejected")
	}
}
