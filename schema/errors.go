package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("dieselsync: parse error")

// ParseError reports malformed schema input. Table is empty when the error
// happened outside of a table declaration.
type ParseError struct {
	Table string
	Line  int
	Msg   string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Table != "" {
		fmt.Fprintf(&b, " in table %q", e.Table)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func newParseError(table string, line int, format string, args ...any) *ParseError {
	return &ParseError{Table: table, Line: line, Msg: fmt.Sprintf(format, args...)}
}
