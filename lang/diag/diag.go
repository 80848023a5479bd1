// Package diag implements rack's diagnostic taxonomy: CommandLine, User,
// Function and Internal errors, each carrying enough of a source position
// to render a caret rule under the offending line. It is grounded on the
// teacher's reuse of go/scanner.Error/ErrorList for accumulated,
// position-carrying diagnostics (lang/scanner), adapted here to also render
// the caret rule the rack source format demands.
package diag

import (
	"fmt"
	"io"

	"github.com/xavierhamel/rack/lang/source"
)

// Kind is the error taxonomy from the specification: CommandLine (usage),
// User (lex/parse/type/codegen diagnostics with a source span), Function
// (same, plus a pointer to the enclosing function's definition line) and
// Internal (a compiler bug).
type Kind int

const (
	User Kind = iota
	CommandLine
	Function
	Internal
)

// Error is one diagnostic. Command-line errors carry no position; User
// errors carry Filename/Row/Col/Len; Function errors additionally carry
// FuncLine, the 0-based line of the enclosing `fn` statement.
type Error struct {
	Kind     Kind
	Msg      string
	Filename string
	Row, Col int
	Len      int
	FuncLine int
}

// CommandLineError builds a usage diagnostic. It carries no source
// position.
func CommandLineError(msg string, args ...interface{}) *Error {
	return &Error{Kind: CommandLine, Msg: fmt.Sprintf(msg, args...)}
}

// UserError builds a diagnostic pointing at a single token.
func UserError(filename string, row, col, tokenLen int, msg string, args ...interface{}) *Error {
	return &Error{
		Kind:     User,
		Msg:      fmt.Sprintf(msg, args...),
		Filename: filename,
		Row:      row,
		Col:      col,
		Len:      tokenLen,
	}
}

// FunctionError is like UserError but additionally names the line on which
// the enclosing function is declared.
func FunctionError(filename string, row, col, tokenLen, funcLine int, msg string, args ...interface{}) *Error {
	e := UserError(filename, row, col, tokenLen, msg, args...)
	e.Kind = Function
	e.FuncLine = funcLine
	return e
}

// InternalError builds a diagnostic for a compiler bug: an invariant the
// pipeline was supposed to guarantee did not hold.
func InternalError(filename string, row, col int) *Error {
	return &Error{
		Kind:     Internal,
		Msg:      "an internal error occurred while parsing or compiling the program. This is a bug, please report it.",
		Filename: filename,
		Row:      row,
		Col:      col,
		Len:      1,
	}
}

func (e *Error) Error() string {
	if e.Filename == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Row, e.Col, e.Msg)
}

// Render writes the full human-readable diagnostic to w: the message, the
// "--> file:row:col" location line, and (for User/Function errors) the
// offending source line with a caret rule underneath it sized to Len.
func (e *Error) Render(w io.Writer) {
	switch e.Kind {
	case CommandLine:
		fmt.Fprintf(w, "error: %s\n", e.Msg)
	case Internal:
		fmt.Fprintf(w, "internal error: %s\n --> %s:%d:%d\n", e.Msg, e.Filename, e.Row, e.Col)
	case Function:
		fmt.Fprintf(w, "error: %s\n --> %s:%d:%d\n", e.Msg, e.Filename, e.Row, e.Col)
		if line, ok := source.Line(e.Filename, e.FuncLine+1); ok {
			fmt.Fprintf(w, "%5d | %s\n      | ...\n", e.FuncLine, line)
		}
		e.renderLine(w)
	default: // User
		fmt.Fprintf(w, "error: %s\n --> %s:%d:%d\n", e.Msg, e.Filename, e.Row, e.Col)
		e.renderLine(w)
	}
}

func (e *Error) renderLine(w io.Writer) {
	line, ok := source.Line(e.Filename, e.Row)
	if !ok {
		return
	}
	col := 0
	if e.Col+2 >= e.Len {
		col = e.Col + 2 - e.Len
	}
	fmt.Fprintf(w, "      |\n%5d | %s\n      | %*s", e.Row, line, col, "")
	for i := 0; i < e.Len; i++ {
		fmt.Fprint(w, "^")
	}
	fmt.Fprintln(w)
}

// List accumulates diagnostics produced by a stage that does not need to
// halt on the first one (lex, structural parse, type check).
type List struct {
	errs []*Error
}

// Add appends e to the list. A nil e is ignored so call sites can write
// `l.Add(check())` without an extra branch.
func (l *List) Add(e *Error) {
	if e != nil {
		l.errs = append(l.errs, e)
	}
}

// HasErrors reports whether any diagnostic was accumulated.
func (l *List) HasErrors() bool {
	return len(l.errs) > 0
}

// Errors returns the accumulated diagnostics.
func (l *List) Errors() []*Error {
	return l.errs
}

// Print renders every accumulated diagnostic to w, in the order they were
// added.
func (l *List) Print(w io.Writer) {
	for _, e := range l.errs {
		e.Render(w)
	}
}

// Error implements the error interface so a *List can be returned wherever
// a single error is expected; it also implements Unwrap() []error so
// errors.Is/As and errors.Join-style introspection work against it.
func (l *List) Error() string {
	if len(l.errs) == 0 {
		return ""
	}
	return l.errs[0].Error()
}

// Unwrap exposes the individual diagnostics to errors.Is/As.
func (l *List) Unwrap() []error {
	errs := make([]error, len(l.errs))
	for i, e := range l.errs {
		errs[i] = e
	}
	return errs
}
