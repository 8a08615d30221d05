package types

import (
	"bufio"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/lambda/ast"
	"golang.org/x/exp/slices"
)

// DefaultMaxDepth is how many nested function types a Printer expands by default.
const DefaultMaxDepth = 16

// Printer renders type names. Names are derived from the expression that
// introduced the canonical slot: a free variable prints as its upper-case letter,
// a bound variable as its digit, a lambda as '\', each followed by one 'r' per
// call it is the result of. Function types are expanded after the name:
//
//	mono: A=(<arg> <ret>)
//	poly: \f=[<arg>]<ret>
//
// A type already being expanded further up is printed by name only, so
// recursive types render as finite strings. Reaching the depth bound is not a
// fault: the type at the bound is likewise printed by name only, so a long but
// valid chain of function types still renders instead of aborting.
type Printer struct {
	g        *Graph
	maxDepth int
	stack    []int
}

func NewPrinter(g *Graph, opts ...Option) *Printer {
	o := newOptions(opts)
	return &Printer{g: g, maxDepth: o.maxDepth, stack: make([]int, 0, o.maxDepth)}
}

// TypeName returns the rendered type of node i.
func (p *Printer) TypeName(i int) string {
	var sb strings.Builder
	p.writeType(&sb, i)
	return sb.String()
}

// WriteTypeName writes the rendered type of node i to w.
func (p *Printer) WriteTypeName(w io.Writer, i int) error {
	_, err := io.WriteString(w, p.TypeName(i))
	return err
}

// canonical follows links without relinking, so printing never mutates g.
func (p *Printer) canonical(i int) int {
	for p.g.slots[i].Parent != Root {
		i = p.g.slots[i].Parent
	}
	return i
}

func (p *Printer) writeType(sb *strings.Builder, i int) {
	c := p.canonical(i)
	p.writeBase(sb, c)
	s := p.g.slots[c]
	if !s.IsFunction() || !p.push(c) {
		return
	}
	defer p.pop()
	switch s.Fun {
	case MonoFunction:
		sb.WriteString("=(")
		p.writeType(sb, s.Arg)
		sb.WriteByte(' ')
		p.writeType(sb, s.Ret)
		sb.WriteByte(')')
	case PolyFunction:
		sb.WriteString("f=[")
		p.writeType(sb, s.Arg)
		sb.WriteByte(']')
		p.writeType(sb, s.Ret)
	}
}

func (p *Printer) writeBase(sb *strings.Builder, c int) {
	e := p.g.exprs
	k := 0
	for e[c].Kind == ast.Call {
		c = e.Callee(c)
		k++
	}
	switch n := e[c]; n.Kind {
	case ast.FreeVar:
		sb.WriteByte(byte('A' + n.Token))
	case ast.BoundVar:
		sb.WriteByte(byte('1' + n.Depth))
	case ast.Lambda:
		sb.WriteByte('\\')
	default:
		panic(&ast.Fault{Index: c, Msg: "type name of node with kind " + n.Kind.String()})
	}
	sb.WriteString(strings.Repeat("r", k))
}

// push reports whether c may be expanded, recording it on the active path.
func (p *Printer) push(c int) bool {
	if len(p.stack) >= p.maxDepth || slices.Contains(p.stack, c) {
		return false
	}
	p.stack = append(p.stack, c)
	return true
}

func (p *Printer) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

// Lines returns the type name of every node, in index order.
func Lines(g *Graph, opts ...Option) []string {
	p := NewPrinter(g, opts...)
	return lo.Times(g.Len(), p.TypeName)
}

// Render writes one type name per line for every node of g.
func Render(w io.Writer, g *Graph, opts ...Option) error {
	bw := bufio.NewWriter(w)
	for _, line := range Lines(g, opts...) {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
