package lexer

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"unicode"

	"github.com/smasher164/xid"
)

type Lexer struct {
	ch    rune
	pos   int // rune offset of ch
	err   error
	buf   []rune // runes of the token being lexed
	rdr   *bufio.Reader
	file  io.Closer
	lines []int // offsets at which each line starts
}

const eof = -1

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	for unicode.IsSpace(l.ch) {
		l.next()
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func isLetter(ch rune) bool {
	return ch == '_' || ch != eof && xid.Start(ch)
}

// isIdentContinue leaves digits out so that "a1" lexes as a applied to 1.
func isIdentContinue(ch rune) bool {
	return ch != eof && !isDecimal(ch) && xid.Continue(ch)
}

func isVarName(ch rune) bool { return 'a' <= ch && ch <= 'z' }

func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }

// lexIdent consumes a whole identifier so that a misspelled name is reported once.
func (l *Lexer) lexIdent() Token {
	startPos := l.pos
	l.next()
	for isIdentContinue(l.ch) {
		l.next()
	}
	ident := l.bufString()
	span := l.spanOf(startPos, l.pos-1)
	runes := []rune(ident)
	switch {
	case len(runes) > 1:
		return Token{Type: Illegal, Span: span, Data: fmt.Sprintf("multi-character variable names aren't allowed: %q", ident)}
	case !isVarName(runes[0]):
		return Token{Type: Illegal, Span: span, Data: fmt.Sprintf("invalid variable name %q, expected a letter a-z", ident)}
	}
	return Token{Type: Ident, Span: span, Data: ident}
}

func (l *Lexer) lexDigit() Token {
	startPos := l.pos
	for isDecimal(l.ch) {
		l.next()
	}
	digits := l.bufString()
	span := l.spanOf(startPos, l.pos-1)
	switch {
	case len(digits) > 1:
		return Token{Type: Illegal, Span: span, Data: fmt.Sprintf("bound references are single digits 1-9, got %q", digits)}
	case digits == "0":
		return Token{Type: Illegal, Span: span, Data: "bound references start at 1"}
	}
	return Token{Type: Digit, Span: span, Data: digits}
}

func (l *Lexer) lexLineComment() Token {
	startPos := l.pos
	for l.ch != '\n' && l.ch != eof {
		l.next()
	}
	return Token{Type: SingleLineComment, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}
	l.buf = append(l.buf, l.ch)
	if l.ch == '\n' {
		l.lines = append(l.lines, l.pos+1)
	}
	l.pos++
	l.read()
}

func (l *Lexer) read() {
	r, _, err := l.rdr.ReadRune()
	if err != nil {
		l.ch = eof
		if err != io.EOF {
			l.err = err
		}
		if l.file != nil {
			l.file.Close()
			l.file = nil
		}
		return
	}
	l.ch = r
}

func (l *Lexer) bufString() string {
	return string(l.buf)
}

func (l *Lexer) lineIndex(offset int) int {
	line, found := sort.Find(len(l.lines), func(i int) int {
		v := l.lines[i]
		if offset == v {
			return 0
		}
		if offset < v {
			return -1
		}
		return 1
	})
	if found {
		return line
	}
	return line - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	if off2 < off1 {
		off2 = off1
	}
	start := l.posOf(off1)
	var end Pos
	if off1 == off2 {
		end = start
	} else {
		end = l.posOf(off2)
	}
	return Span{Start: start, End: end}
}

// NextToken returns the next token, including whitespace and comments.
func (l *Lexer) NextToken() Token {
	l.buf = l.buf[:0]
	startPos := l.pos
	switch {
	case unicode.IsSpace(l.ch):
		return l.lexWS()
	case l.ch == '#':
		return l.lexLineComment()
	case isLetter(l.ch):
		return l.lexIdent()
	case isDecimal(l.ch):
		return l.lexDigit()
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

// Next returns the next significant token, with any whitespace and comments
// before it attached as LeadingTrivia.
func (l *Lexer) Next() Token {
	var t Token
	var trivia []Token
	for t = l.NextToken(); t.Type == Whitespace || t.Type == SingleLineComment; t = l.NextToken() {
		trivia = append(trivia, t)
	}
	t.LeadingTrivia = trivia
	return t
}

// Err returns the first read error other than io.EOF.
func (l *Lexer) Err() error {
	return l.err
}

// New returns a Lexer reading source from r.
func New(r io.Reader) *Lexer {
	return newLexer(r, nil)
}

func newLexer(r io.Reader, c io.Closer) *Lexer {
	l := &Lexer{
		rdr:   bufio.NewReader(r),
		file:  c,
		lines: []int{0},
	}
	l.read()
	return l
}

// NewLexer opens filename in fsys and returns a Lexer over its contents. The file
// is closed once the lexer reaches the end of it.
func NewLexer(fsys fs.FS, filename string) (*Lexer, error) {
	f, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	return newLexer(f, f), nil
}
