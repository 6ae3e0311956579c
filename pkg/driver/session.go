package driver

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/interpreter"
	"borrowlisp/interpreter-go/pkg/parser"
	"borrowlisp/interpreter-go/pkg/runtime"
	"borrowlisp/interpreter-go/pkg/typechecker"
)

// SessionOptions configures a Session. A nil Stdout discards display output; a nil Logger
// disables tracing.
type SessionOptions struct {
	Stdout io.Writer
	Logger *slog.Logger
	Render RenderMode
}

// Session runs source text through read, analysis and evaluation. Every form evaluated by one
// session allocates into the same Store.
type Session struct {
	interp *interpreter.Interpreter
	logger *slog.Logger
	render RenderMode
}

// Checked is one analyzed top-level form.
type Checked struct {
	Expr ast.Expression
	Type typechecker.Type
}

// Outcome is one evaluated top-level form.
type Outcome struct {
	Checked
	Value runtime.Value
	// Rendered is Value printed in the session's render mode.
	Rendered string
}

// NewSession creates a session with a fresh Store.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	render := opts.Render
	if render == "" {
		render = RenderShort
	}
	return &Session{
		interp: interpreter.NewWithOptions(interpreter.Options{Stdout: opts.Stdout, Logger: logger}),
		logger: logger,
		render: render,
	}
}

// Store exposes the heap shared by the session's evaluations.
func (s *Session) Store() *runtime.Store {
	return s.interp.Store()
}

// Check reads and analyzes every form in source without evaluating anything.
func (s *Session) Check(source string) ([]Checked, error) {
	exprs, err := parser.ParseAll(source)
	if err != nil {
		return nil, err
	}
	checked := make([]Checked, 0, len(exprs))
	for idx, expr := range exprs {
		res, err := typechecker.NewWithLogger(s.logger).Check(expr, nil)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("driver: form analyzed", "form", idx, "type", res.Type.Name())
		checked = append(checked, Checked{Expr: expr, Type: res.Type})
	}
	return checked, nil
}

// Run analyzes every form in source and, only when all of them pass, evaluates them in order.
// Evaluation stops at the first runtime fault; outcomes of the forms before it are returned
// alongside the error.
func (s *Session) Run(source string) ([]Outcome, error) {
	checked, err := s.Check(source)
	if err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, len(checked))
	for idx, form := range checked {
		val, err := s.interp.Evaluate(form.Expr, nil)
		if err != nil {
			return outcomes, err
		}
		s.logger.Debug("driver: form evaluated", "form", idx, "value", val.String())
		outcomes = append(outcomes, Outcome{Checked: form, Value: val, Rendered: s.Render(val)})
	}
	return outcomes, nil
}

// RunFile reads path and runs its contents.
func (s *Session) RunFile(path string) ([]Outcome, string, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, "", err
	}
	outcomes, err := s.Run(source)
	return outcomes, source, err
}

// CheckFile reads path and analyzes its contents.
func (s *Session) CheckFile(path string) ([]Checked, string, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, "", err
	}
	checked, err := s.Check(source)
	return checked, source, err
}

// Render prints v in the session's render mode.
func (s *Session) Render(v runtime.Value) string {
	if s.render == RenderDeep {
		return interpreter.Describe(v, s.interp.Store())
	}
	return v.String()
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
