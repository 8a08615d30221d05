package parser

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/smasher164/lambda/lexer"
)

type SyntaxError struct {
	Filename string
	Span     lexer.Span
	Msg      string
}

func (e *SyntaxError) Error() string {
	pos := e.Span.Start
	if e.Filename == "" {
		return fmt.Sprintf("%d:%d: syntax error: %s", pos.Line, pos.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error: %s", e.Filename, pos.Line, pos.Column, e.Msg)
}

// SyntaxErrors returns every *SyntaxError in err, in the order they were found.
func SyntaxErrors(err error) []*SyntaxError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return lo.FilterMap(joined.Unwrap(), func(e error, _ int) (*SyntaxError, bool) {
			var se *SyntaxError
			return se, errors.As(e, &se)
		})
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return []*SyntaxError{se}
	}
	return nil
}
