package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/smasher164/lambda/ast"
	"github.com/smasher164/lambda/lexer"
)

type parser struct {
	l       Lexer
	tok     lexer.Token
	name    string
	exprs   ast.Exprs
	lambdas int // lambdas enclosing the current position
	errs    []error
	log     Logger
	indent  int
}

type Lexer interface {
	Next() lexer.Token
	Err() error
}

// Logger receives parser trace output. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type Option func(*parser)

// WithTrace logs each grammar rule as it is entered.
func WithTrace(l Logger) Option {
	return func(p *parser) { p.log = l }
}

func (p *parser) trace(msg string) func() {
	if p.log != nil {
		p.log.Printf("%*s%s %s", p.indent*2, "", msg, p.tok)
		p.indent++
		return func() {
			p.indent--
		}
	}
	return func() {}
}

// Parse parses the program in filename. The result is in postfix order, ready for
// type inference. If there are syntax errors, the returned error joins one
// *SyntaxError per problem found and the expressions are nil.
func Parse(fsys fs.FS, filename string, opts ...Option) (ast.Exprs, error) {
	l, err := lexer.NewLexer(fsys, filename)
	if err != nil {
		return nil, err
	}
	return parse(l, filename, opts)
}

// ParseReader parses the program read from r. name is used in error messages.
func ParseReader(name string, r io.Reader, opts ...Option) (ast.Exprs, error) {
	return parse(lexer.New(r), name, opts)
}

func ParseString(name, src string, opts ...Option) (ast.Exprs, error) {
	return ParseReader(name, strings.NewReader(src), opts...)
}

func parse(l Lexer, name string, opts []Option) (ast.Exprs, error) {
	p := &parser{l: l, name: name}
	for _, opt := range opts {
		opt(p)
	}
	p.parseProgram()
	if err := l.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if err := p.exprs.Validate(); err != nil {
		panic(fmt.Sprintf("unreachable: parser produced invalid expressions: %v", err))
	}
	return p.exprs, nil
}

func (p *parser) errorf(span lexer.Span, format string, args ...any) {
	p.errs = append(p.errs, &SyntaxError{Filename: p.name, Span: span, Msg: fmt.Sprintf(format, args...)})
}

// next advances to the next token, reporting and skipping illegal ones.
func (p *parser) next() {
	for p.tok = p.l.Next(); p.tok.Type == lexer.Illegal; p.tok = p.l.Next() {
		p.errorf(p.tok.Span, "%s", p.tok.Data)
	}
}

func (p *parser) emit(n ast.Node) {
	p.exprs = append(p.exprs, n)
}

func (p *parser) parseProgram() {
	defer p.trace("parseProgram")()
	p.next()
	if !p.parseExpr() {
		p.errorf(p.tok.Span, "expected expression")
	}
	for p.tok.Type != lexer.EOF {
		if p.tok.Type == lexer.RightParen {
			p.errorf(p.tok.Span, "unmatched ')'")
			p.next()
			continue
		}
		p.parseExpr()
	}
}

// parseExpr parses a left-associative chain of applications and reports whether
// anything was parsed.
func (p *parser) parseExpr() bool {
	defer p.trace("parseExpr")()
	if !p.parseOperand() {
		return false
	}
	for p.tok.BeginsOperand() {
		start := len(p.exprs)
		if p.parseOperand() {
			p.emit(ast.Apply(len(p.exprs) - start))
		}
	}
	return true
}

func (p *parser) parseOperand() bool {
	defer p.trace("parseOperand")()
	switch tok := p.tok; tok.Type {
	case lexer.Ident:
		p.next()
		p.emit(ast.Free(tok.Token()))
		return true
	case lexer.Digit:
		p.next()
		if d := tok.Depth(); d >= p.lambdas {
			p.errorf(tok.Span, "reference %s is not bound by any of the %d enclosing lambdas", tok.Data, p.lambdas)
		}
		p.emit(ast.Bound(tok.Depth()))
		return true
	case lexer.LeftParen:
		p.next()
		ok := p.parseExpr()
		if !ok {
			p.errorf(p.tok.Span, "expected expression")
		}
		if p.tok.Type != lexer.RightParen {
			p.errorf(tok.Span.Add(p.tok.Span), "unmatched '('")
			return ok
		}
		p.next()
		return ok
	case lexer.Backslash:
		return p.parseLambda()
	}
	return false
}

// parseLambda parses a lambda, whose body extends as far right as possible.
// It emits the body, then the parameter placeholder, then the lambda itself.
// Once the backslash is consumed it always emits a lambda.
func (p *parser) parseLambda() bool {
	defer p.trace("parseLambda")()
	tok := p.tok
	p.next()
	p.lambdas++
	ok := p.parseExpr()
	p.lambdas--
	if !ok {
		p.errorf(tok.Span, "expected lambda body")
		// stand-in body so enclosing rules do not report the same gap again
		p.emit(ast.Bound(0))
	}
	p.emit(ast.Bound(0))
	p.emit(ast.Abs())
	return true
}
