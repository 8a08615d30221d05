package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota
	Ident
	Digit
	Backslash
	LeftParen
	RightParen
	Whitespace
	SingleLineComment
	Illegal
)

var tokenNames = [...]string{
	EOF:               "EOF",
	Ident:             "Ident",
	Digit:             "Digit",
	Backslash:         "Backslash",
	LeftParen:         "LeftParen",
	RightParen:        "RightParen",
	Whitespace:        "Whitespace",
	SingleLineComment: "SingleLineComment",
	Illegal:           "Illegal",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var SingleCharTokens = map[rune]TokenType{
	'\\': Backslash,
	'(':  LeftParen,
	')':  RightParen,
	eof:  EOF,
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	return Span{span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}

// Token returns the free-variable token of an Ident, 0 for 'a' through 25 for 'z'.
func (t Token) Token() int {
	return int(t.Data[0] - 'a')
}

// Depth returns the bound-variable depth of a Digit, 0 for '1'.
func (t Token) Depth() int {
	return int(t.Data[0] - '1')
}

// BeginsOperand reports whether t can start an operand of an application.
func (t Token) BeginsOperand() bool {
	switch t.Type {
	case Ident, Digit, LeftParen, Backslash:
		return true
	}
	return false
}
