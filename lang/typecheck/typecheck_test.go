package typecheck_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xavierhamel/rack/lang/include"
	"github.com/xavierhamel/rack/lang/lexer"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/typecheck"
)

func check(t *testing.T, src string) *parser.Program {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.rk")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	flat, err := include.Resolve(path)
	require.NoError(t, err)

	toks, lexErrs := lexer.Lex(flat)
	require.False(t, lexErrs.HasErrors(), lexErrs.Error())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors(), parseErrs.Error())
	return prog
}

func TestFunctionBodyMatchingSignaturePasses(t *testing.T) {
	prog := check(t, "fn add [int,int -> int] + end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestInsufficientStackIsAnError(t *testing.T) {
	prog := check(t, "1 +\n")
	errs := typecheck.Check(prog)
	require.True(t, errs.HasErrors())
}

func TestVoidFunctionMustLeaveEmptyStack(t *testing.T) {
	prog := check(t, "fn noop [-> void] 1 end\n")
	errs := typecheck.Check(prog)
	require.True(t, errs.HasErrors())
}

func TestArithmeticResultIsPtrWhenEitherOperandIsPtr(t *testing.T) {
	prog := check(t, "fn f [-> ptr] mem 4 + end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestPutThenFetchRoundTripsTheVariableType(t *testing.T) {
	prog := check(t, "fn f [-> int] 5 x put x fetch end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestFetchWithoutPriorPutIsAnError(t *testing.T) {
	prog := check(t, "fn f [-> any] x fetch end\n")
	errs := typecheck.Check(prog)
	require.True(t, errs.HasErrors())
}

func TestConstPushesIntAtUseSite(t *testing.T) {
	prog := check(t, "const SIZE 8 end\nfn f [-> int] SIZE end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestIfBranchBodyIsCheckedButElseBranchIsNot(t *testing.T) {
	// The `else` branch is skipped entirely by the single forward walk, so
	// a stack imbalance hidden inside it is not reported (a known,
	// intentional limitation of this one-pass checker).
	prog := check(t, "fn f [-> int] 1 if 2 else \"oops\" \"oops\" end end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestWhileConditionIsCheckedButBodyIsNot(t *testing.T) {
	prog := check(t, "fn f [-> void] while 1 do \"oops\" end end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}

func TestFunctionCallPopsArgsAndPushesReturns(t *testing.T) {
	prog := check(t, "fn double [int -> int] dup + end\nfn f [-> int] 3 double end\n")
	errs := typecheck.Check(prog)
	require.False(t, errs.HasErrors(), errs.Error())
}
