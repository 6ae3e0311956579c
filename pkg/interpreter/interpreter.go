package interpreter

import (
	"io"
	"log/slog"

	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/runtime"
)

// Options configures an Interpreter. Zero values select an empty Store, discarded output and
// no logging.
type Options struct {
	Store  *runtime.Store
	Stdout io.Writer
	Logger *slog.Logger
}

// Interpreter evaluates analyzed expressions against an Environment and a heap Store.
type Interpreter struct {
	store  *runtime.Store
	out    io.Writer
	logger *slog.Logger
	// frames holds, per open scope, the addresses borrowed while evaluating it.
	frames [][]runtime.Address
}

// New returns an interpreter with a fresh Store whose display output is discarded.
func New() *Interpreter {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Interpreter {
	store := opts.Store
	if store == nil {
		store = runtime.NewStore()
	}
	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Interpreter{store: store, out: out, logger: logger}
}

// Store exposes the heap the interpreter allocates into.
func (i *Interpreter) Store() *runtime.Store {
	return i.store
}

// Evaluate runs expr in env. The expression must already have passed the analyzer; the only
// fault reported for such programs is DivisionByZeroFault.
func (i *Interpreter) Evaluate(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	if env == nil {
		env = runtime.NewEnvironment(nil)
	}
	depth := len(i.frames)
	i.pushFrame()
	val, err := i.evaluateExpression(env, nil, expr)
	if err != nil {
		i.unwindFrames(depth)
		return nil, err
	}
	i.popFrame(val)
	return val, nil
}

// Evaluate runs expr against env and store with a one-off interpreter.
func Evaluate(expr ast.Expression, env *runtime.Environment, store *runtime.Store) (runtime.Value, error) {
	return NewWithOptions(Options{Store: store}).Evaluate(expr, env)
}
