package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/kr/pretty"
	"github.com/peterh/liner"

	"github.com/smasher164/lambda/ast"
	"github.com/smasher164/lambda/parser"
	"github.com/smasher164/lambda/types"
)

const (
	historyFile = ".lambda_history"
	prompt      = "λ> "
	replName    = "<repl>"
	replHelp    = `Enter a program to see the type of each subexpression.
  :ast   toggle printing the node array with every program
  :help  show this message
  :quit  exit
`
)

func repl(cfg *Config, stdout io.Writer, d *diagnostics) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var histPath string
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				ln.WriteHistory(f)
				f.Close()
			}
		}()
	}

	s := &session{cfg: cfg, w: stdout, d: d}
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(stdout)
			return exitOK
		}
		if err != nil {
			d.errorf("%v", err)
			return exitError
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if !s.eval(line) {
			return exitOK
		}
	}
}

type session struct {
	cfg     *Config
	w       io.Writer
	d       *diagnostics
	showAST bool
}

// eval handles one line of input and reports whether the session continues.
func (s *session) eval(line string) bool {
	switch line {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprint(s.w, replHelp)
		return true
	case ":ast":
		s.showAST = !s.showAST
		return true
	}
	if strings.HasPrefix(line, ":") {
		fmt.Fprintf(s.w, "unknown command %s, try :help\n", line)
		return true
	}
	e, err := parser.ParseString(replName, line)
	if err != nil {
		s.d.report(err)
		return true
	}
	if err := s.show(e); err != nil {
		s.d.report(err)
	}
	return true
}

// show prints each subexpression of e next to its type.
func (s *session) show(e ast.Exprs) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*ast.Fault)
			if !ok {
				panic(r)
			}
			err = fault
		}
	}()
	if s.showAST {
		fmt.Fprintf(s.w, "%# v\n", pretty.Formatter(e))
	}
	g := types.Infer(e)
	p := types.NewPrinter(g, types.WithMaxDepth(s.cfg.MaxDepth))
	tw := tabwriter.NewWriter(s.w, 0, 4, 2, ' ', 0)
	for i := range e {
		sub := e[e.Start(i) : i+1]
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i, sub, p.TypeName(i))
	}
	return tw.Flush()
}
