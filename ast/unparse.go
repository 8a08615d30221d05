package ast

import (
	"bufio"
	"io"
	"strings"
)

// Unparse writes e back out as source text. Calls are fully parenthesized and
// lambdas are wrapped in parentheses, so the output parses back to e.
func Unparse(w io.Writer, e Exprs) error {
	if err := e.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	unparse(bw, e, e.Root())
	return bw.Flush()
}

// String returns the unparsed form of e.
func (e Exprs) String() string {
	var sb strings.Builder
	if err := Unparse(&sb, e); err != nil {
		return err.Error()
	}
	return sb.String()
}

func unparse(w *bufio.Writer, e Exprs, i int) {
	switch n := e[i]; n.Kind {
	case FreeVar:
		w.WriteByte(byte('a' + n.Token))
	case BoundVar:
		w.WriteByte(byte('1' + n.Depth))
	case Call:
		w.WriteByte('(')
		unparse(w, e, e.Callee(i))
		w.WriteByte(' ')
		unparse(w, e, e.Arg(i))
		w.WriteByte(')')
	case Lambda:
		w.WriteString(`(\`)
		unparse(w, e, e.Body(i))
		w.WriteByte(')')
	default:
		panic("unreachable")
	}
}
