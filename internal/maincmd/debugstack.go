package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/xavierhamel/rack/lang/include"
	"github.com/xavierhamel/rack/lang/lexer"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/typecheck"
)

// DebugStack resolves includes, lexes and parses path, looks up funcName
// among its declared functions, and traces the type stack through its body
// to stdio.Stdout. It never reaches code generation - this mode exists to
// inspect a single function's stack effects in isolation.
func DebugStack(ctx context.Context, stdio mainer.Stdio, path, funcName string) error {
	flat, err := include.Resolve(path)
	if err != nil {
		renderErr(stdio, err)
		return err
	}

	toks, lexErrs := lexer.Lex(flat)
	if lexErrs.HasErrors() {
		lexErrs.Print(stdio.Stderr)
		return lexErrs
	}

	prog, parseErrs := parser.Parse(toks)
	if parseErrs.HasErrors() {
		parseErrs.Print(stdio.Stderr)
		return parseErrs
	}

	fn, ok := prog.Functions.Get(funcName)
	if !ok {
		err := fmt.Errorf("the function `%s` does not exist. Check the spelling or make sure it is declared before being debugged", funcName)
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	if traceErrs := typecheck.DebugStack(prog, fn, stdio.Stdout); traceErrs.HasErrors() {
		traceErrs.Print(stdio.Stderr)
		return traceErrs
	}
	return nil
}
