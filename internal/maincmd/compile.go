package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/xavierhamel/rack/lang/codegen"
	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/include"
	"github.com/xavierhamel/rack/lang/lexer"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/typecheck"
)

// Compile runs the full pipeline against path - include resolution,
// lexing, structural parsing, type checking, code generation - and writes
// the resulting NASM assembly to stdio.Stdout. The first stage to report a
// diagnostic stops the pipeline and renders it to stdio.Stderr.
func Compile(ctx context.Context, stdio mainer.Stdio, path string) error {
	fmt.Fprintf(stdio.Stdout, "compiling %s\n", path)

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

	if checkErrs := typecheck.Check(prog); checkErrs.HasErrors() {
		checkErrs.Print(stdio.Stderr)
		return checkErrs
	}

	asm, genErrs := codegen.Compile(prog)
	if genErrs.HasErrors() {
		genErrs.Print(stdio.Stderr)
		return genErrs
	}

	fmt.Fprint(stdio.Stdout, asm)
	fmt.Fprintf(stdio.Stdout, "finished %s\n", path)
	return nil
}

func renderErr(stdio mainer.Stdio, err error) {
	if e, ok := err.(*diag.Error); ok {
		e.Render(stdio.Stderr)
		return
	}
	fmt.Fprintln(stdio.Stderr, err)
}
