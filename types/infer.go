package types

import (
	"fmt"

	"github.com/smasher164/lambda/ast"
)

// Logger receives trace output. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type options struct {
	trace    Logger
	maxDepth int
}

type Option func(*options)

// WithTrace logs every step of type graph construction to l.
func WithTrace(l Logger) Option {
	return func(o *options) { o.trace = l }
}

// WithMaxDepth bounds how many nested function types a printer expands.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func newOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// bindings maps each variable to the first slot it occurred at.
type bindings struct {
	free  [ast.NumTokens]int
	bound [ast.MaxDepth]int
}

func newBindings() *bindings {
	b := &bindings{}
	for i := range b.free {
		b.free[i] = Root
	}
	for i := range b.bound {
		b.bound[i] = Root
	}
	return b
}

type builder struct {
	*Graph
	env   *bindings
	trace Logger
}

func (b *builder) tracef(format string, args ...any) {
	if b.trace != nil {
		b.trace.Printf(format, args...)
	}
}

// Infer builds the type graph of exprs in a single pass. Every node gets a slot,
// and afterwards every slot links directly to its canonical slot.
//
// Infer never rejects a program for being ill-typed. It panics with an
// *ast.Fault if exprs is structurally invalid; callers holding untrusted input
// should run exprs.Validate first.
func Infer(exprs ast.Exprs, opts ...Option) *Graph {
	if len(exprs) == 0 {
		panic(&ast.Fault{Index: 0, Msg: "empty expression array"})
	}
	o := newOptions(opts)
	b := &builder{Graph: newGraph(exprs), env: newBindings(), trace: o.trace}
	for i := range exprs {
		b.infer(i)
	}
	b.compress()
	return b.Graph
}

func (b *builder) infer(i int) {
	if err := b.exprs.Check(i); err != nil {
		panic(err)
	}
	switch n := b.exprs[i]; n.Kind {
	case ast.FreeVar:
		b.bind(&b.env.free[n.Token], i)
	case ast.BoundVar:
		b.bind(&b.env.bound[n.Depth], i)
	case ast.Call:
		b.coerceCallee(b.exprs.Callee(i), b.exprs.Arg(i), i)
	case ast.Lambda:
		b.setFun(i, PolyFunction, b.Find(b.exprs.Param(i)), b.Find(b.exprs.Body(i)))
	default:
		panic(fmt.Sprintf("unreachable: kind %v", n.Kind))
	}
	b.tracef("slot %d (%v): %v", i, b.exprs[i], b.slots[b.Find(i)])
}

func (b *builder) bind(first *int, i int) {
	if *first == Root {
		*first = i
		return
	}
	b.Union(i, *first)
}

// coerceCallee makes the callee of the call at ret a function from arg to ret.
func (b *builder) coerceCallee(callee, arg, ret int) {
	f := b.Find(callee)
	s := b.slots[f]
	switch s.Fun {
	case NotFunction:
		b.setFun(f, MonoFunction, b.Find(arg), b.Find(ret))
	default:
		b.Union(s.Arg, arg)
		b.Union(s.Ret, ret)
	}
}
