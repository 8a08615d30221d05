package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/smasher164/lambda/fsx"
	"github.com/smasher164/lambda/types"
)

const stdinName = "<stdin>"

type Config struct {
	Types      bool
	Unparse    bool
	Dump       bool
	SourceRead bool // read the source, echo it with its length, then exit

	Interactive bool
	Output      string
	MaxDepth    int
	Input       string // empty for standard input

	Debug  string   // DEBUG: "*" or a package-name prefix
	Faults []string // INJECTED_FAULTS
}

func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	var c Config
	fset := flag.NewFlagSet("lambda", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintf(stderr, "usage: lambda [flags] [file]\n\nInfers a type for every subexpression of a lambda program read from file or standard input.\n\n")
		fset.PrintDefaults()
	}
	fset.BoolVar(&c.Types, "types", false, "print the inferred type of every node (default action)")
	fset.BoolVar(&c.Unparse, "unparse", false, "print the program fully parenthesized")
	fset.BoolVar(&c.Dump, "dump", false, "print the postfix node array")
	fset.BoolVar(&c.SourceRead, "test-source-read", false, "print the length of the source and the source, then exit")
	fset.BoolVar(&c.Interactive, "i", false, "start an interactive session")
	fset.StringVar(&c.Output, "o", "", "write output to `file` instead of standard output")
	fset.IntVar(&c.MaxDepth, "max-depth", types.DefaultMaxDepth, "expand at most `n` nested function types")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	switch fset.NArg() {
	case 0:
	case 1:
		c.Input = fset.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one input file, got %d", fset.NArg())
	}
	c.Debug = getenv("DEBUG")
	c.Faults = splitList(getenv("INJECTED_FAULTS"))
	if err := c.validate(); err != nil {
		return nil, err
	}
	if !c.Types && !c.Unparse && !c.Dump && !c.SourceRead && !c.Interactive {
		c.Types = true
	}
	return &c, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (c *Config) actions() []string {
	var acts []string
	if c.Unparse {
		acts = append(acts, "-unparse")
	}
	if c.Dump {
		acts = append(acts, "-dump")
	}
	if c.Types {
		acts = append(acts, "-types")
	}
	return acts
}

func (c *Config) validate() error {
	var errs []error
	if acts := c.actions(); c.SourceRead && len(acts) > 0 {
		errs = append(errs, fmt.Errorf("-test-source-read reads the source then exits, it cannot be combined with %s", strings.Join(acts, " ")))
	}
	if c.Interactive && (c.SourceRead || c.Input != "") {
		errs = append(errs, errors.New("-i reads programs from the terminal, it cannot be combined with an input file or -test-source-read"))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("-max-depth must not be negative, got %d", c.MaxDepth))
	}
	known := maps.Keys(fsx.Faults)
	slices.Sort(known)
	seen := map[string]bool{}
	for _, name := range c.Faults {
		if !slices.Contains(known, name) {
			errs = append(errs, fmt.Errorf("INJECTED_FAULTS: unknown fault %q (known: %s)", name, strings.Join(known, ", ")))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("INJECTED_FAULTS: fault %q given more than once", name))
		}
		seen[name] = true
	}
	return errors.Join(errs...)
}

// source returns the filesystem holding the input and the input's name in it.
func (c *Config) source(stdin io.Reader) (fs.FS, string, error) {
	var fsys fs.FS
	name := stdinName
	if c.Input == "" {
		fsys = fsx.ReaderFS(name, stdin)
	} else {
		fsys, name = fsx.DirFS(filepath.Dir(c.Input)), filepath.Base(c.Input)
	}
	fsys, err := fsx.WithFaults(fsys, c.Faults...)
	return fsys, name, err
}

// debugEnabled reports whether DEBUG selects pkg.
func (c *Config) debugEnabled(pkg string) bool {
	return c.Debug == "*" || c.Debug != "" && strings.HasPrefix(pkg, c.Debug)
}

// debugLogger returns a logger for pkg, or nil if DEBUG does not select it.
func (c *Config) debugLogger(pkg string, w io.Writer) *log.Logger {
	if !c.debugEnabled(pkg) {
		return nil
	}
	return log.New(w, "DBG: "+pkg+": ", 0)
}
