package types

import (
	"fmt"

	"github.com/smasher164/lambda/ast"
)

type FunKind uint8

const (
	NotFunction FunKind = iota
	MonoFunction
	PolyFunction
)

func (f FunKind) String() string {
	switch f {
	case NotFunction:
		return "NotFunction"
	case MonoFunction:
		return "MonoFunction"
	case PolyFunction:
		return "PolyFunction"
	}
	return fmt.Sprintf("FunKind(%d)", f)
}

// Root marks a canonical slot.
const Root = -1

// Slot is the type of one expression node. A slot either links to a lower-indexed
// slot of the same type, or it is canonical and may describe a function type.
type Slot struct {
	Parent int
	Fun    FunKind
	Arg    int
	Ret    int
}

func (s Slot) IsCanonical() bool { return s.Parent == Root }

func (s Slot) IsFunction() bool { return s.Parent == Root && s.Fun != NotFunction }

func (s Slot) String() string {
	switch {
	case !s.IsCanonical():
		return fmt.Sprintf("-> %d", s.Parent)
	case s.Fun == MonoFunction:
		return fmt.Sprintf("mono %d -> %d", s.Arg, s.Ret)
	case s.Fun == PolyFunction:
		return fmt.Sprintf("poly %d -> %d", s.Arg, s.Ret)
	}
	return "var"
}

// Graph is a union-find forest of type slots, one per node of Exprs.
type Graph struct {
	exprs ast.Exprs
	slots []Slot
}

func newGraph(exprs ast.Exprs) *Graph {
	slots := make([]Slot, len(exprs))
	for i := range slots {
		slots[i] = Slot{Parent: Root}
	}
	return &Graph{exprs: exprs, slots: slots}
}

func (g *Graph) Len() int { return len(g.slots) }

func (g *Graph) Exprs() ast.Exprs { return g.exprs }

// Slot returns the raw slot at i without resolving it.
func (g *Graph) Slot(i int) Slot { return g.slots[i] }

// IsFunction reports whether the type of i is a function type.
func (g *Graph) IsFunction(i int) bool {
	return g.slots[g.Find(i)].IsFunction()
}

// Find returns the canonical slot for i, relinking every slot on the way directly
// to it. Links always point to lower indices, so this terminates.
func (g *Graph) Find(i int) int {
	p := g.slots[i].Parent
	if p == Root {
		return i
	}
	if p < 0 || p >= i {
		panic(&ast.Fault{Index: i, Msg: fmt.Sprintf("type link to non-lower slot %d", p)})
	}
	c := g.Find(p)
	g.slots[i].Parent = c
	return c
}

// Union merges the types of i and j. The lower canonical index survives and keeps
// its own function structure, taking on the other's only if it had none. When
// both are functions, their arguments and returns are merged as well; there is no
// occurs check, so this may build recursive types.
func (g *Graph) Union(i, j int) {
	a, b := g.Find(i), g.Find(j)
	if a == b {
		return
	}
	lo, hi := min(a, b), max(a, b)
	ls, hs := g.slots[lo], g.slots[hi]
	if !ls.IsFunction() && hs.IsFunction() {
		g.slots[lo] = Slot{Parent: Root, Fun: hs.Fun, Arg: hs.Arg, Ret: hs.Ret}
	}
	g.slots[hi] = Slot{Parent: lo}
	if ls.IsFunction() && hs.IsFunction() {
		g.Union(ls.Arg, hs.Arg)
		g.Union(ls.Ret, hs.Ret)
	}
}

// compress points every slot directly at its canonical slot.
func (g *Graph) compress() {
	for i := range g.slots {
		g.Find(i)
	}
}

// setFun marks canonical slot i as a function type.
func (g *Graph) setFun(i int, fun FunKind, arg, ret int) {
	g.slots[i] = Slot{Parent: Root, Fun: fun, Arg: arg, Ret: ret}
}
