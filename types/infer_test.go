package types_test

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smasher164/lambda/ast"
	"github.com/smasher164/lambda/types"
)

// genExprs builds a random well-formed expression of roughly size nodes.
func genExprs(r *rand.Rand, size int) ast.Exprs {
	var e ast.Exprs
	var gen func(budget, lambdas int)
	gen = func(budget, lambdas int) {
		switch {
		case budget <= 1 || r.Intn(4) == 0:
			if lambdas > 0 && r.Intn(2) == 0 {
				e = append(e, ast.Bound(r.Intn(min(lambdas, ast.MaxDepth))))
			} else {
				e = append(e, ast.Free(r.Intn(4)))
			}
		case budget >= 3 && lambdas < ast.MaxDepth && r.Intn(3) == 0:
			gen(budget-2, lambdas+1)
			e = append(e, ast.Bound(0), ast.Abs())
		default:
			gen(budget/2, lambdas)
			start := len(e)
			gen(budget/2, lambdas)
			e = append(e, ast.Apply(len(e)-start))
		}
	}
	gen(size, 0)
	return e
}

func randomCorpus(t *testing.T) []ast.Exprs {
	r := rand.New(rand.NewSource(164))
	var corpus []ast.Exprs
	for i := 0; i < 200; i++ {
		e := genExprs(r, 1+r.Intn(60))
		require.NoError(t, e.Validate())
		corpus = append(corpus, e)
	}
	return corpus
}

func TestFindCanonical(t *testing.T) {
	for _, e := range randomCorpus(t) {
		g := types.Infer(e)
		for i := 0; i < g.Len(); i++ {
			c := g.Find(i)
			require.LessOrEqual(t, c, i, "expr %v slot %d", e, i)
			require.Equal(t, c, g.Find(c), "expr %v slot %d", e, i)
			// after inference every slot is a single hop from its canonical slot
			s := g.Slot(i)
			if c == i {
				require.True(t, s.IsCanonical())
			} else {
				require.Equal(t, c, s.Parent)
			}
		}
	}
}

func TestUnionSymmetry(t *testing.T) {
	// a b c d e: five unrelated type variables
	e := ast.Exprs{ast.Free(0), ast.Free(1), ast.Free(2), ast.Free(3), ast.Free(4)}
	pairs := [][2]int{{3, 1}, {4, 0}, {1, 4}, {2, 2}}
	g1, g2 := types.Infer(e), types.Infer(e)
	for _, p := range pairs {
		g1.Union(p[0], p[1])
		g2.Union(p[1], p[0])
		require.Equal(t, g1.Find(p[0]), g1.Find(p[1]))
		require.Equal(t, g2.Find(p[0]), g2.Find(p[1]))
	}
	for i := 0; i < e.Len(); i++ {
		require.Equal(t, g1.Find(i), g2.Find(i), "slot %d", i)
	}
	require.Equal(t, 0, g1.Find(3), "lowest index survives")
	require.Equal(t, 2, g1.Find(2))
}

func TestUnionPropagatesFunction(t *testing.T) {
	// c (a b): slot 1 is a function from slot 2 to slot 3, slot 0 is plain.
	e := ast.Exprs{ast.Free(2), ast.Free(0), ast.Free(1), ast.Apply(1)}
	g := types.Infer(e)
	require.False(t, g.IsFunction(0))
	require.True(t, g.IsFunction(1))

	g.Union(0, 1)
	require.Equal(t, 0, g.Find(1))
	require.True(t, g.IsFunction(0))
	s := g.Slot(g.Find(0))
	require.Equal(t, types.MonoFunction, s.Fun)
	require.Equal(t, 2, g.Find(s.Arg))
	require.Equal(t, 3, g.Find(s.Ret))
}

func TestUnionMergesFunctions(t *testing.T) {
	// (a b) (c d): a and c are unrelated functions
	e := ast.Exprs{ast.Free(0), ast.Free(1), ast.Apply(1), ast.Free(2), ast.Free(3), ast.Apply(1)}
	g := types.Infer(e)
	g.Union(3, 0)
	require.Equal(t, g.Find(1), g.Find(4), "arguments merged")
	require.Equal(t, g.Find(2), g.Find(5), "returns merged")
	require.Equal(t, 1, g.Find(4))
	require.Equal(t, 2, g.Find(5))
}

func TestRepeatedTokensShareSlot(t *testing.T) {
	for _, e := range randomCorpus(t) {
		g := types.Infer(e)
		first := map[int]int{}
		for i, n := range e {
			if n.Kind != ast.FreeVar {
				continue
			}
			if j, ok := first[n.Token]; ok {
				require.Equal(t, g.Find(j), g.Find(i), "expr %v token %c", e, 'a'+n.Token)
			} else {
				first[n.Token] = i
			}
		}
	}
}

func TestCallCoercesCallee(t *testing.T) {
	g := types.Infer(ast.Exprs{ast.Free(0), ast.Free(1), ast.Apply(1)})
	s := g.Slot(0)
	require.Equal(t, types.MonoFunction, s.Fun)
	require.Equal(t, 1, s.Arg)
	require.Equal(t, 2, s.Ret)
	require.False(t, g.IsFunction(1))
	require.False(t, g.IsFunction(2))
}

func TestLambdaIsPoly(t *testing.T) {
	// \1
	g := types.Infer(ast.Exprs{ast.Bound(0), ast.Bound(0), ast.Abs()})
	s := g.Slot(2)
	require.Equal(t, types.PolyFunction, s.Fun)
	require.Equal(t, 0, g.Find(s.Arg))
	require.Equal(t, 0, g.Find(s.Ret))
}

func TestAppliedLambdaBindsArgument(t *testing.T) {
	// (\1) a
	e := ast.Exprs{ast.Bound(0), ast.Bound(0), ast.Abs(), ast.Free(0), ast.Apply(1)}
	require.NoError(t, e.Validate())
	g := types.Infer(e)
	s := g.Slot(2)
	require.Equal(t, types.PolyFunction, s.Fun)
	require.Equal(t, g.Find(s.Arg), g.Find(3), "argument joins the parameter")
	require.Equal(t, g.Find(s.Ret), g.Find(4), "call result joins the body")
	require.Equal(t, []string{"1", "1", `\f=[1]1`, "1", "1"}, types.Lines(g))
}

func TestUnionKeepsLowerStructure(t *testing.T) {
	// \1 followed by f x: slot 2 is poly, slot 3 is mono
	e := ast.Exprs{ast.Bound(0), ast.Bound(0), ast.Abs(), ast.Free(5), ast.Free(23), ast.Apply(1)}
	g := types.Infer(e)
	require.Equal(t, types.MonoFunction, g.Slot(3).Fun)

	g.Union(3, 2)
	require.Equal(t, 2, g.Find(3))
	require.Equal(t, types.PolyFunction, g.Slot(2).Fun)
	require.Equal(t, 0, g.Find(4), "arguments merged")
	require.Equal(t, 0, g.Find(5), "returns merged")
}

// Bound variables are keyed by depth, so an outer lambda's parameter shares the
// depth-0 class of its placeholder rather than the class of its own references.
func TestOuterLambdaParameter(t *testing.T) {
	// \\2 1
	e := ast.Exprs{
		ast.Bound(1), ast.Bound(0), ast.Apply(1), ast.Bound(0), ast.Abs(),
		ast.Bound(0), ast.Abs(),
	}
	require.NoError(t, e.Validate())
	g := types.Infer(e)
	outer := g.Slot(6)
	require.Equal(t, types.PolyFunction, outer.Fun)
	require.Equal(t, 1, g.Find(outer.Arg))
	require.NotEqual(t, g.Find(0), g.Find(outer.Arg))
}

func TestSelfApplicationTerminates(t *testing.T) {
	for _, src := range []ast.Exprs{
		// a a
		{ast.Free(0), ast.Free(0), ast.Apply(1)},
		// (\1 1) (\1 1)
		{
			ast.Bound(0), ast.Bound(0), ast.Apply(1), ast.Bound(0), ast.Abs(),
			ast.Bound(0), ast.Bound(0), ast.Apply(1), ast.Bound(0), ast.Abs(),
			ast.Apply(5),
		},
		// a (a a) a
		{ast.Free(0), ast.Free(0), ast.Free(0), ast.Apply(1), ast.Apply(3), ast.Free(0), ast.Apply(1)},
	} {
		require.NoError(t, src.Validate())
		for _, line := range types.Lines(types.Infer(src)) {
			require.NotEmpty(t, line)
		}
	}
}

func TestInferFault(t *testing.T) {
	run := func(name string, e ast.Exprs, index int) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic")
				err, ok := r.(error)
				require.True(t, ok, "panic value %v is not an error", r)
				var f *ast.Fault
				require.True(t, errors.As(err, &f))
				require.Equal(t, index, f.Index)
			}()
			types.Infer(e)
		})
	}
	run("empty", ast.Exprs{}, 0)
	run("unknown kind", ast.Exprs{ast.Free(0), {Kind: 9}}, 1)
	run("argspan", ast.Exprs{ast.Free(0), ast.Apply(1)}, 1)
	run("depth", ast.Exprs{ast.Bound(ast.MaxDepth)}, 0)
	run("lambda", ast.Exprs{ast.Bound(0), ast.Abs()}, 1)
}

func TestConcurrentInfer(t *testing.T) {
	corpus := randomCorpus(t)
	want := make([][]string, len(corpus))
	for i, e := range corpus {
		want[i] = types.Lines(types.Infer(e))
	}
	var wg sync.WaitGroup
	got := make([][]string, len(corpus))
	for i, e := range corpus {
		wg.Add(1)
		go func(i int, e ast.Exprs) {
			defer wg.Done()
			got[i] = types.Lines(types.Infer(e))
		}(i, e)
	}
	wg.Wait()
	require.Equal(t, want, got)
}

type recorder struct{ lines []string }

func (r *recorder) Printf(format string, args ...any) {
	r.lines = append(r.lines, format)
}

func TestTrace(t *testing.T) {
	var rec recorder
	types.Infer(ast.Exprs{ast.Free(0), ast.Free(1), ast.Apply(1)}, types.WithTrace(&rec))
	require.Len(t, rec.lines, 3)
	require.True(t, strings.HasPrefix(rec.lines[0], "slot"))
}
