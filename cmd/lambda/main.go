// Command lambda infers a type for every subexpression of a small lambda program.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/sanity-io/litter"

	"github.com/smasher164/lambda/ast"
	"github.com/smasher164/lambda/fsx"
	"github.com/smasher164/lambda/parser"
	"github.com/smasher164/lambda/types"
)

const (
	exitOK    = 0
	exitError = 1 // usage, read or syntax errors
	exitFault = 2 // internal fault
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	cfg, err := parseConfig(args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	d := newDiagnostics(stderr)
	if err != nil {
		d.errorf("%v", err)
		return exitError
	}
	if cfg.Interactive {
		return repl(cfg, stdout, d)
	}

	fsys, name, err := cfg.source(stdin)
	if err != nil {
		d.errorf("%v", err)
		return exitError
	}
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		d.errorf("reading %s: %v", name, err)
		return exitError
	}

	// Nothing is written until every action has succeeded.
	var out bytes.Buffer
	if cfg.SourceRead {
		fmt.Fprintf(&out, "%d %s\n", len(src), src)
	} else {
		e, err := parser.ParseReader(name, bytes.NewReader(src), parserOptions(cfg, stderr)...)
		if err != nil {
			d.report(err)
			return exitError
		}
		if err := process(cfg, e, &out, stderr); err != nil {
			d.report(err)
			return exitFault
		}
	}
	if err := cfg.emit(out.Bytes(), stdout); err != nil {
		d.errorf("%v", err)
		return exitError
	}
	return exitOK
}

func parserOptions(cfg *Config, stderr io.Writer) []parser.Option {
	if l := cfg.debugLogger("parser", stderr); l != nil {
		return []parser.Option{parser.WithTrace(l)}
	}
	return nil
}

func typeOptions(cfg *Config, stderr io.Writer) []types.Option {
	opts := []types.Option{types.WithMaxDepth(cfg.MaxDepth)}
	if l := cfg.debugLogger("types", stderr); l != nil {
		opts = append(opts, types.WithTrace(l))
	}
	return opts
}

// process runs the configured actions on e, in the order unparse, dump, types.
// An internal fault is returned as an *ast.Fault.
func process(cfg *Config, e ast.Exprs, w io.Writer, stderr io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*ast.Fault)
			if !ok {
				panic(r)
			}
			err = fault
		}
	}()
	if err := e.Validate(); err != nil {
		return err
	}
	if cfg.Unparse {
		if err := ast.Unparse(w, e); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if cfg.Dump {
		fmt.Fprintln(w, e.ASTString(0))
	}
	if cfg.Types {
		opts := typeOptions(cfg, stderr)
		g := types.Infer(e, opts...)
		if l := cfg.debugLogger("types", stderr); l != nil {
			l.Printf("slots: %s", litter.Sdump(lo.Times(g.Len(), g.Slot)))
		}
		if err := types.Render(w, g, opts...); err != nil {
			return err
		}
	}
	return nil
}

// emit writes the buffered output to the -o file, or to stdout.
func (c *Config) emit(b []byte, stdout io.Writer) error {
	if c.Output == "" {
		_, err := stdout.Write(b)
		return err
	}
	f, err := fsx.Create(fsx.DirFS(filepath.Dir(c.Output)), filepath.Base(c.Output))
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type diagnostics struct {
	w     io.Writer
	color bool
}

func newDiagnostics(w io.Writer) *diagnostics {
	d := &diagnostics{w: w}
	if f, ok := w.(*os.File); ok {
		d.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return d
}

func (d *diagnostics) red(s string) string {
	if !d.color {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}

func (d *diagnostics) errorf(format string, args ...any) {
	fmt.Fprintln(d.w, d.red("lambda: "+fmt.Sprintf(format, args...)))
}

// report prints each syntax error in err on its own line, or err itself.
func (d *diagnostics) report(err error) {
	if errs := parser.SyntaxErrors(err); len(errs) > 0 {
		for _, se := range errs {
			fmt.Fprintln(d.w, d.red(se.Error()))
		}
		return
	}
	d.errorf("%v", err)
}
