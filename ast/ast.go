package ast

import (
	"fmt"
	"strings"
)

// MaxDepth is the number of distinct bound-variable depths. Bound references are
// written and printed as the digits '1'..'9'.
const MaxDepth = 9

// NumTokens is the number of distinct free-variable tokens, one per letter 'a'..'z'.
const NumTokens = 26

type Kind uint8

const (
	Invalid Kind = iota
	FreeVar
	BoundVar
	Call
	Lambda
)

func (k Kind) String() string {
	switch k {
	case FreeVar:
		return "FreeVar"
	case BoundVar:
		return "BoundVar"
	case Call:
		return "Call"
	case Lambda:
		return "Lambda"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is one expression. Only the field matching Kind is meaningful.
type Node struct {
	Kind    Kind
	Token   int // FreeVar: 0..25
	Depth   int // BoundVar: enclosing lambdas crossed to reach the binder
	ArgSpan int // Call: number of nodes in the argument subtree
}

func Free(token int) Node    { return Node{Kind: FreeVar, Token: token} }
func Bound(depth int) Node   { return Node{Kind: BoundVar, Depth: depth} }
func Apply(argSpan int) Node { return Node{Kind: Call, ArgSpan: argSpan} }
func Abs() Node              { return Node{Kind: Lambda} }

func (n Node) String() string {
	switch n.Kind {
	case FreeVar:
		return fmt.Sprintf("FreeVar %c", 'a'+n.Token)
	case BoundVar:
		return fmt.Sprintf("BoundVar %d", n.Depth)
	case Call:
		return fmt.Sprintf("Call argSpan=%d", n.ArgSpan)
	case Lambda:
		return "Lambda"
	}
	return n.Kind.String()
}

// Exprs is an expression tree flattened in postfix order: the children of every
// node occupy a contiguous block of lower indices and the last node is the root.
//
// For a Call at i the argument is at i-1 and the callee at i-ArgSpan-1.
// For a Lambda at i the parameter placeholder is at i-1 and the body at i-2.
type Exprs []Node

func (e Exprs) Len() int { return len(e) }

func (e Exprs) Root() int { return len(e) - 1 }

func (e Exprs) Callee(i int) int { return i - e[i].ArgSpan - 1 }

func (e Exprs) Arg(i int) int { return i - 1 }

func (e Exprs) Param(i int) int { return i - 1 }

func (e Exprs) Body(i int) int { return i - 2 }

// Start returns the lowest index of the subtree rooted at i.
func (e Exprs) Start(i int) int {
	for {
		switch e[i].Kind {
		case Call:
			i = e.Callee(i)
		case Lambda:
			i = e.Body(i)
		default:
			return i
		}
	}
}

// Fault reports a violated structural invariant at a node. It indicates a bug in
// whatever produced the expressions, never a problem with the program's types.
type Fault struct {
	Index int
	Msg   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("internal fault at node %d: %s", f.Index, f.Msg)
}

func faultf(i int, format string, args ...any) *Fault {
	return &Fault{Index: i, Msg: fmt.Sprintf(format, args...)}
}

// Check validates node i against the nodes before it.
func (e Exprs) Check(i int) error {
	n := e[i]
	switch n.Kind {
	case FreeVar:
		if n.Token < 0 || n.Token >= NumTokens {
			return faultf(i, "token %d out of range [0,%d)", n.Token, NumTokens)
		}
	case BoundVar:
		if n.Depth < 0 || n.Depth >= MaxDepth {
			return faultf(i, "depth %d out of range [0,%d)", n.Depth, MaxDepth)
		}
	case Call:
		if n.ArgSpan < 1 || e.Callee(i) < 0 {
			return faultf(i, "argSpan %d out of range for call", n.ArgSpan)
		}
	case Lambda:
		if i < 2 {
			return faultf(i, "lambda without body and parameter slots")
		}
	default:
		return faultf(i, "unknown node kind %d", n.Kind)
	}
	return nil
}

// Validate checks every node. A valid parse always passes.
func (e Exprs) Validate() error {
	if len(e) == 0 {
		return faultf(0, "empty expression array")
	}
	for i := range e {
		if err := e.Check(i); err != nil {
			return err
		}
	}
	return nil
}

func indent(depth int) string {
	return fmt.Sprintf("%*s", depth*2, "")
}

func (e Exprs) ASTString(depth int) string {
	var sb strings.Builder
	sb.WriteString("Exprs")
	for i, n := range e {
		fmt.Fprintf(&sb, "\n%s%d: %s", indent(depth+1), i, n)
	}
	return sb.String()
}
