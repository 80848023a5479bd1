package typecheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/token"
	"github.com/xavierhamel/rack/lang/types"
)

// DebugStack walks fn's body exactly as Check does - seeded with its
// declared argument types, one forward pass, the same jmp-driven branch
// skipping - but additionally writes a trace line to w after every token:
// the token itself and the resulting stack. It is the tool `--debug-stack`
// exposes for working out why a function's exit stack doesn't match its
// signature.
func DebugStack(prog *parser.Program, fn parser.FunctionInfo, w io.Writer) *diag.List {
	errs := &diag.List{}
	c := newChecker(prog, errs)
	c.stack = seedArgs(fn.Args)
	c.trace = w

	fmt.Fprintf(w, "%-24s | %s\n%s\n", "Token", "Stack", strings.Repeat("-", 50))
	c.run(fn.BodyStart, fn.BodyEnd)
	return errs
}

func tokenLabel(tok token.Token) string {
	switch tok.Kind {
	case token.INT:
		return fmt.Sprintf("Int(%d)", tok.IntVal)
	case token.STR:
		return fmt.Sprintf("Str(%q)", tok.StrVal)
	case token.IDENT:
		return fmt.Sprintf("Identifier(%s)", tok.Ident)
	case token.SYS:
		return fmt.Sprintf("Sys(%s)", tok.StrVal)
	default:
		return tok.Kind.String()
	}
}

func stackRepr(stack []types.Type) string {
	parts := make([]string, len(stack))
	for i, t := range stack {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
