package codegen

import (
	"fmt"
	"strings"
)

// Writer builds source text line by line with indentation tracking.
type Writer struct {
	sb          strings.Builder
	indentLevel int
	indent      string
	needsIndent bool
}

// NewWriter creates a Writer that indents with the given string.
func NewWriter(indent string) *Writer {
	return &Writer{indent: indent, needsIndent: true}
}

// Indent increases the indentation level.
func (w *Writer) Indent() {
	w.indentLevel++
}

// Dedent decreases the indentation level.
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}

// Write writes s without a trailing newline.
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(strings.Repeat(w.indent, w.indentLevel))
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// Line writes s followed by a newline.
func (w *Writer) Line(s string) {
	w.Write(s)
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// Linef is Line with formatting.
func (w *Writer) Linef(format string, args ...any) {
	w.Line(fmt.Sprintf(format, args...))
}

// BlankLine emits an empty line unless the output already ends with one.
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Line("")
	}
}

// Block writes opener, the indented body and closer.
func (w *Writer) Block(opener, closer string, body func()) {
	w.Line(opener)
	w.Indent()
	body()
	w.Dedent()
	w.Line(closer)
}

// Doc writes each line of doc as a /// comment.
func (w *Writer) Doc(doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		if line == "" {
			w.Line("///")
			continue
		}
		w.Line("/// " + line)
	}
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.sb.String()
}
