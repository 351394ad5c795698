package codegen

import (
	"fmt"
	"io"
	"strings"
)

// Writer accumulates assembly text and flushes it to an injectable sink.
// Grounded on the teacher's util.Writer (buffer-then-flush-to-channel),
// simplified to a plain io.Writer since code generation here is strictly
// sequential per function (spec.md §5) -- there is no worker pool writing
// concurrently, so the teacher's channel indirection has no job to do.
// Production wiring binds the sink to os.Stdout; tests bind it to a
// strings.Builder or bytes.Buffer.
type Writer struct {
	sb strings.Builder
	w  io.Writer
}

// NewWriter returns a Writer that flushes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes s verbatim, with no indentation added.
func (w *Writer) Raw(s string) {
	w.sb.WriteString(s)
}

// Line writes one two-space-indented instruction line, per spec.md §4.6's
// "instructions indented with two spaces" convention.
func (w *Writer) Line(format string, args ...interface{}) {
	w.sb.WriteString("  ")
	w.sb.WriteString(fmt.Sprintf(format, args...))
	w.sb.WriteByte('\n')
}

// FuncLabel writes a flush-left function-entry label, e.g. "main:".
func (w *Writer) FuncLabel(name string) {
	w.sb.WriteString(name)
	w.sb.WriteString(":\n")
}

// Label writes a flush-left label definition, e.g. ".Lbegin0:".
func (w *Writer) Label(name string) {
	w.sb.WriteString(name)
	w.sb.WriteString(":\n")
}

// Flush writes the buffered text to the sink and empties the buffer.
func (w *Writer) Flush() error {
	_, err := io.WriteString(w.w, w.sb.String())
	w.sb.Reset()
	return err
}
