package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
	"github.com/xavierhamel/rack/internal/filetest"
	"github.com/xavierhamel/rack/internal/maincmd"
)

// updateGoldenTests plays the role of the teacher's -test.update-*-tests
// flags (lang/scanner/scanner_test.go and friends). This package has no
// generator worth re-running by hand, so it is wired straight to false
// rather than exposed as its own registered flag.
var updateGoldenTests = false

const outDir = "testdata/out"

func stdio() (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errb bytes.Buffer
	return mainer.Stdio{Stdout: &out, Stderr: &errb}, &out, &errb
}

func in(name string) string {
	return filepath.Join("testdata", "in", name)
}

// fixtures indexes every testdata/in/*.rk file by name using the same
// filetest.SourceFiles enumeration the teacher's scanner/parser/resolver
// golden tests are built on, so each scenario below can golden-diff its
// stderr (and, where the full stdout is small and deterministic, its
// stdout) against a real testdata/out/<name> fixture instead of an ad hoc
// substring assertion.
func fixtures(t *testing.T) map[string]os.FileInfo {
	t.Helper()
	byName := make(map[string]os.FileInfo)
	for _, fi := range filetest.SourceFiles(t, filepath.Join("testdata", "in"), ".rk") {
		byName[fi.Name()] = fi
	}
	return byName
}

// TestAddWithNoFunctions covers spec scenario 1: a function-free program
// whose top-level arithmetic leaves an int on the stack. stderr is
// golden-diffed against testdata/out/add.rk.err (empty: the compile
// succeeds); the generated assembly is large, preamble-dominated
// boilerplate that changing a runtime constant would shift wholesale, so it
// is checked via targeted assertions on the addition's own opcodes instead
// of a full golden diff.
func TestAddWithNoFunctions(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("add.rk"))
	require.NoError(t, err)
	filetest.DiffErrors(t, fixtures(t)["add.rk"], errb.String(), outDir, &updateGoldenTests)
	require.Contains(t, out.String(),
		"\tmov rax, 34\n\tpush rax\n\tmov rax, 35\n\tpush rax\n\tpop rbx\n\tpop rax\n\tadd rax, rbx\n\tpush rax\n")
}

// TestIfElseBranchesToDistinctLabels covers spec scenario 2.
func TestIfElseBranchesToDistinctLabels(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("ifelse.rk"))
	require.NoError(t, err)
	filetest.DiffErrors(t, fixtures(t)["ifelse.rk"], errb.String(), outDir, &updateGoldenTests)
	require.Contains(t, out.String(), "jz ADDR_")
	require.Contains(t, out.String(), "jmp ADDR_")
	// `else` is token 3 and `end` token 5.
	require.Contains(t, out.String(), "\tjz ADDR_3_0\n")
	require.Contains(t, out.String(), "\tjmp ADDR_5_0\nADDR_3_0:\n")
	require.Contains(t, out.String(), "ADDR_5_0:\n")
}

// TestWhileLoopRewritesEndToEndwhile covers spec scenario 3.
func TestWhileLoopRewritesEndToEndwhile(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("whileloop.rk"))
	require.NoError(t, err)
	filetest.DiffErrors(t, fixtures(t)["whileloop.rk"], errb.String(), outDir, &updateGoldenTests)
	require.Contains(t, out.String(), "\tpop rax\n\ttest rax, rax\n\tjz ADDR_")
	require.Contains(t, out.String(), "jmp ADDR_")
}

// TestFunctionCallSiteAndDefinition covers spec scenario 4.
func TestFunctionCallSiteAndDefinition(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("function.rk"))
	require.NoError(t, err)
	filetest.DiffErrors(t, fixtures(t)["function.rk"], errb.String(), outDir, &updateGoldenTests)
	require.Contains(t, out.String(), "sq:\n\tcall _std@store_ret_ptr\n")
	require.Contains(t, out.String(), "\tcall _std@load_ret_ptr\n\tret\n")
	require.Contains(t, out.String(), "\tcall sq\n")
}

// TestMissingIncludeHaltsBeforeLexing covers spec scenario 5: the include
// resolver halts the pipeline before any assembly is produced, so both its
// stdout (just the "compiling ..." banner) and stderr (the rendered
// diagnostic) are small and fully deterministic - golden-diffed in full
// against testdata/out/missinginclude.rk.want and .err.
func TestMissingIncludeHaltsBeforeLexing(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("missinginclude.rk"))
	require.Error(t, err)
	fi := fixtures(t)["missinginclude.rk"]
	filetest.DiffOutput(t, fi, out.String(), outDir, &updateGoldenTests)
	filetest.DiffErrors(t, fi, errb.String(), outDir, &updateGoldenTests)
}

// TestInsufficientStackAtPlusIsAUserError covers spec scenario 6: the type
// checker halts on `+` for lack of operands before any code is generated,
// so stdout and the rendered, caret-underlined diagnostic are both
// golden-diffed in full against testdata/out/stackerror.rk.want and .err.
func TestInsufficientStackAtPlusIsAUserError(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.Compile(context.Background(), io, in("stackerror.rk"))
	require.Error(t, err)
	fi := fixtures(t)["stackerror.rk"]
	filetest.DiffOutput(t, fi, out.String(), outDir, &updateGoldenTests)
	filetest.DiffErrors(t, fi, errb.String(), outDir, &updateGoldenTests)
}

// TestDebugStackTracesEveryToken exercises the --debug-stack operating mode
// end to end against the same function.rk fixture used above.
func TestDebugStackTracesEveryToken(t *testing.T) {
	io, out, errb := stdio()
	err := maincmd.DebugStack(context.Background(), io, in("function.rk"), "sq")
	require.NoError(t, err)
	require.Empty(t, errb.String())
	require.Contains(t, out.String(), "Token")
	require.Contains(t, out.String(), "Stack")
	require.Contains(t, out.String(), "----------")
	require.Contains(t, out.String(), "dup")
	require.Contains(t, out.String(), "[int, int]")
}

// TestDebugStackUnknownFunctionIsAnError exercises the not-found branch of
// DebugStack.
func TestDebugStackUnknownFunctionIsAnError(t *testing.T) {
	io, _, errb := stdio()
	err := maincmd.DebugStack(context.Background(), io, in("function.rk"), "does_not_exist")
	require.Error(t, err)
	require.Contains(t, errb.String(), "the function `does_not_exist` does not exist")
}
