package typechecker

import (
	"borrowlisp/interpreter-go/pkg/ast"
	"borrowlisp/interpreter-go/pkg/diag"
)

// loan is one live borrow (`&` or `!`) of a Box binding.
type loan struct {
	id       int
	target   *binding
	mutable  bool
	released bool
}

// frame owns the loans created while analyzing one scope. Loans die with their frame unless
// the scope's result value carries them out.
type frame struct {
	loans []*loan
}

// lambdaContext collects what a lambda body borrows from enclosing scopes; the closure value
// holds those borrows for as long as it is live.
type lambdaContext struct {
	depth   int
	borrows map[*binding]bool
	order   []*binding
	carried []*loan
}

func (c *Checker) pushFrame() {
	c.frames = append(c.frames, &frame{})
}

func (c *Checker) currentFrame() *frame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// popFrame ends the innermost scope. Loans not carried by res are released; carried loans move
// to the enclosing frame, and may not point at bindings the scope itself declared.
func (c *Checker) popFrame(path ast.Path, node ast.Node, res result, declared ...*binding) (result, error) {
	top := c.currentFrame()
	if top == nil {
		return res, nil
	}
	c.frames = c.frames[:len(c.frames)-1]

	live := liveLoans(res.loans)
	for _, l := range live {
		for _, b := range declared {
			if l.target == b {
				return res, diag.New(diag.CategoryBorrowConflict, path, node,
					"borrowed binding '%s' does not live long enough: a reference to it escapes its scope", b.name)
			}
		}
	}

	keep := make(map[*loan]struct{}, len(live))
	for _, l := range live {
		keep[l] = struct{}{}
	}
	for _, l := range top.loans {
		if _, ok := keep[l]; !ok {
			c.release(l)
		}
	}
	if parent := c.currentFrame(); parent != nil {
		parent.loans = append(parent.loans, live...)
	}
	res.loans = live
	return res, nil
}

func (c *Checker) lambdaDepth() int {
	return len(c.lambdas)
}

func (c *Checker) pushLambda() *lambdaContext {
	ctx := &lambdaContext{depth: len(c.lambdas) + 1, borrows: make(map[*binding]bool)}
	c.lambdas = append(c.lambdas, ctx)
	return ctx
}

func (c *Checker) popLambda() {
	if len(c.lambdas) == 0 {
		return
	}
	c.lambdas = c.lambdas[:len(c.lambdas)-1]
}

// isCaptured reports whether b was introduced outside the innermost lambda being analyzed.
func (c *Checker) isCaptured(b *binding) bool {
	return b.depth < c.lambdaDepth()
}

func (c *Checker) newLoan(target *binding, mutable bool) *loan {
	c.nextLoan++
	l := &loan{id: c.nextLoan, target: target, mutable: mutable}
	target.loans = append(target.loans, l)
	if f := c.currentFrame(); f != nil {
		f.loans = append(f.loans, l)
	}
	for _, ctx := range c.lambdas {
		if ctx.depth <= target.depth {
			continue
		}
		prev, seen := ctx.borrows[target]
		if !seen {
			ctx.order = append(ctx.order, target)
		}
		ctx.borrows[target] = prev || mutable
	}
	c.logger.Debug("typechecker: loan created", "binding", target.name, "loan", l.id, "mutable", mutable)
	return l
}

func (c *Checker) release(l *loan) {
	if l == nil || l.released {
		return
	}
	l.released = true
	kept := l.target.loans[:0]
	for _, other := range l.target.loans {
		if other != l {
			kept = append(kept, other)
		}
	}
	l.target.loans = kept
	c.logger.Debug("typechecker: loan released", "binding", l.target.name, "loan", l.id)
}

// recordCapturedUse makes every enclosing lambda that captures b hold the loans b's value carries.
func (c *Checker) recordCapturedUse(b *binding) {
	if len(b.carried) == 0 {
		return
	}
	for _, ctx := range c.lambdas {
		if ctx.depth > b.depth {
			ctx.carried = append(ctx.carried, b.carried...)
		}
	}
}

func liveLoans(loans []*loan) []*loan {
	var out []*loan
	seen := make(map[*loan]struct{}, len(loans))
	for _, l := range loans {
		if l == nil || l.released {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func unionLoans(a, b []*loan) []*loan {
	merged := make([]*loan, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return liveLoans(merged)
}

func hasMutableLoan(b *binding) bool {
	for _, l := range b.loans {
		if l.mutable {
			return true
		}
	}
	return false
}

// bindingState is the ownership portion of a binding, saved around `if` branches.
type bindingState struct {
	moved          bool
	usedUnresolved bool
	loans          []*loan
	carried        []*loan
}

type snapshot map[*binding]bindingState

func (c *Checker) snapshot(env *Environment) snapshot {
	snap := make(snapshot)
	for _, b := range env.bindings() {
		snap[b] = bindingState{
			moved:          b.moved,
			usedUnresolved: b.usedUnresolved,
			loans:          append([]*loan(nil), b.loans...),
			carried:        append([]*loan(nil), b.carried...),
		}
	}
	return snap
}

// current records the present state of every binding in the snapshot.
func (s snapshot) current() snapshot {
	out := make(snapshot, len(s))
	for b := range s {
		out[b] = bindingState{
			moved:          b.moved,
			usedUnresolved: b.usedUnresolved,
			loans:          append([]*loan(nil), b.loans...),
			carried:        append([]*loan(nil), b.carried...),
		}
	}
	return out
}

func (s snapshot) restore() {
	for b, st := range s {
		b.moved = st.moved
		b.usedUnresolved = st.usedUnresolved
		b.loans = append([]*loan(nil), st.loans...)
		b.carried = append([]*loan(nil), st.carried...)
	}
}

// merge folds the state reached by another branch into the current one: anything moved in
// either branch is moved, and loans alive in either branch stay alive.
func (s snapshot) merge() {
	for b, st := range s {
		b.moved = b.moved || st.moved
		b.usedUnresolved = b.usedUnresolved || st.usedUnresolved
		b.loans = unionLoans(st.loans, b.loans)
		b.carried = unionLoans(st.carried, b.carried)
	}
}
