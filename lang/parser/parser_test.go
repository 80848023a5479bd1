package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xavierhamel/rack/lang/include"
	"github.com/xavierhamel/rack/lang/lexer"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/token"
)

func parse(t *testing.T, src string) (*parser.Program, bool) {
	t.Helper()
	toks, lexErrs := lexer.Lex(src)
	require.False(t, lexErrs.HasErrors(), lexErrs.Error())
	prog, errs := parser.Parse(toks)
	return prog, errs.HasErrors()
}

func flatten(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.rk")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	got, err := include.Resolve(path)
	require.NoError(t, err)
	return got
}

func TestCallRewritePreservesArgumentOrder(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "f(a, b, c)\n"))
	require.False(t, hasErrs)

	var idents []string
	for _, tok := range prog.Tokens {
		if tok.Kind == token.IDENT {
			idents = append(idents, tok.Ident)
		}
	}
	require.Equal(t, []string{"a", "b", "c", "f"}, idents)
}

func TestCallRewriteNested(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "f(g(a, b), c)\n"))
	require.False(t, hasErrs)

	var idents []string
	for _, tok := range prog.Tokens {
		if tok.Kind == token.IDENT {
			idents = append(idents, tok.Ident)
		}
	}
	require.Equal(t, []string{"a", "b", "g", "c", "f"}, idents)
}

func TestUnmatchedParenIsAnError(t *testing.T) {
	_, hasErrs := parse(t, flatten(t, "x f(a, b\n"))
	require.True(t, hasErrs)
}

func TestIfElseEndPairing(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "1 if 2 else 3 end\n"))
	require.False(t, hasErrs)

	ifIdx, elseIdx, endIdx := -1, -1, -1
	for i, tok := range prog.Tokens {
		switch tok.Kind {
		case token.IF:
			ifIdx = i
		case token.ELSE:
			elseIdx = i
		case token.END:
			endIdx = i
		}
	}
	require.NotEqual(t, -1, ifIdx)
	require.NotEqual(t, -1, elseIdx)
	require.NotEqual(t, -1, endIdx)

	jmp, ok := prog.Tokens[ifIdx].Jmp()
	require.True(t, ok)
	require.Equal(t, elseIdx, jmp)

	jmp, ok = prog.Tokens[elseIdx].Jmp()
	require.True(t, ok)
	require.Equal(t, endIdx, jmp)
}

func TestWhileDoEndPairing(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "while 1 do 2 end\n"))
	require.False(t, hasErrs)

	whileIdx, doIdx, endIdx := -1, -1, -1
	for i, tok := range prog.Tokens {
		switch tok.Kind {
		case token.WHILE:
			whileIdx = i
		case token.DO:
			doIdx = i
		case token.ENDWHILE:
			endIdx = i
		}
	}
	require.NotEqual(t, -1, endIdx, "the closing `end` should have been rewritten to ENDWHILE")

	jmp, ok := prog.Tokens[doIdx].Jmp()
	require.True(t, ok)
	require.Equal(t, endIdx, jmp)

	jmp, ok = prog.Tokens[endIdx].Jmp()
	require.True(t, ok)
	require.Equal(t, whileIdx, jmp)
}

func TestElseWithoutIfIsAnError(t *testing.T) {
	_, hasErrs := parse(t, flatten(t, "1 else 2 end\n"))
	require.True(t, hasErrs)
}

func TestEndWithoutOpenerIsAnError(t *testing.T) {
	_, hasErrs := parse(t, flatten(t, "1 2 + end\n"))
	require.True(t, hasErrs)
}

func TestUnterminatedBlockIsAnError(t *testing.T) {
	_, hasErrs := parse(t, flatten(t, "fn f [-> void]\n"))
	require.True(t, hasErrs)
}

func TestFunctionTable(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "fn add [int,int -> int] + end\n"))
	require.False(t, hasErrs)

	fn, ok := prog.Functions.Get("add")
	require.True(t, ok)
	require.Len(t, fn.Args, 2)
	require.Len(t, fn.Returns, 1)
	require.False(t, fn.IgnoreReturn)
}

func TestConstTable(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "const FOO 42 end\n"))
	require.False(t, hasErrs)

	c, ok := prog.Consts.Get("FOO")
	require.True(t, ok)
	require.Equal(t, int64(42), c.Value)
}

func TestMacroTable(t *testing.T) {
	prog, hasErrs := parse(t, flatten(t, "macro double dup + end\n"))
	require.False(t, hasErrs)

	m, ok := prog.Macros.Get("double")
	require.True(t, ok)
	require.Greater(t, m.BodyEnd, m.BodyStart)
}
