package typechecker

import (
	"fmt"
	"io"
	"log/slog"

	"borrowlisp/interpreter-go/pkg/ast"
)

// InferenceMap records the type inferred for each analyzed node.
type InferenceMap map[ast.Node]Type

// Checker walks an expression once, inferring types and tracking ownership of every binding.
type Checker struct {
	infer    InferenceMap
	subst    map[int]Type
	copyOnly map[int]string
	nextVar  int
	nextLoan int
	frames   []*frame
	lambdas  []*lambdaContext
	logger   *slog.Logger

	pendingDerefs []pendingDeref
}

// result is what analyzing one expression yields: its type and the loans its value carries.
type result struct {
	typ   Type
	loans []*loan
}

// Result is a successfully analyzed program.
type Result struct {
	// Type is the fully resolved type of the root expression.
	Type Type

	env   *Environment
	types InferenceMap
}

// TypeOf returns the resolved type inferred for node, if it was analyzed.
func (r *Result) TypeOf(node ast.Node) (Type, bool) {
	t, ok := r.types[node]
	return t, ok
}

// Environment exposes the ownership facts of the caller-provided bindings after analysis.
func (r *Result) Environment() *Environment {
	return r.env
}

// New returns a checker instance that does not log.
func New() *Checker {
	return NewWithLogger(nil)
}

// NewWithLogger returns a checker that traces scopes and loans at debug level.
func NewWithLogger(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{logger: logger}
}

// Analyze checks expr against env with a fresh Checker.
func Analyze(expr ast.Expression, env *Environment) (*Result, error) {
	return New().Check(expr, env)
}

// Check analyzes expr in env. The first violation found in a left-to-right traversal is
// returned as a *diag.Error and no partial result is produced. env is not modified.
func (c *Checker) Check(expr ast.Expression, env *Environment) (*Result, error) {
	if ast.IsNil(expr) {
		return nil, fmt.Errorf("typechecker: expression is nil")
	}
	c.infer = make(InferenceMap)
	c.subst = make(map[int]Type)
	c.copyOnly = make(map[int]string)
	c.nextVar = 0
	c.nextLoan = 0
	c.frames = nil
	c.lambdas = nil
	c.pendingDerefs = nil

	scope := env.clone()
	if scope == nil {
		scope = NewEnvironment(nil)
	}

	var root ast.Path
	c.pushFrame()
	res, err := c.checkExpression(scope, root, expr)
	if err != nil {
		return nil, err
	}
	if _, err := c.popFrame(root, expr, res); err != nil {
		return nil, err
	}
	if err := c.settleDerefs(true); err != nil {
		return nil, err
	}

	types := make(InferenceMap, len(c.infer))
	for node, t := range c.infer {
		types[node] = c.resolve(t)
	}
	for _, b := range scope.bindings() {
		b.typ = c.resolve(b.typ)
	}
	c.logger.Debug("typechecker: analysis complete", "type", c.resolve(res.typ).Name(), "nodes", len(types))
	return &Result{Type: c.resolve(res.typ), env: scope, types: types}, nil
}

func (c *Checker) record(node ast.Node, res result) result {
	c.infer[node] = res.typ
	return res
}

// typeName renders t with every known substitution applied.
func (c *Checker) typeName(t Type) string {
	return c.resolve(t).Name()
}
