package include_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xavierhamel/rack/lang/include"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveNoIncludes(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.rk", "34 35 +\n")

	got, err := include.Resolve(main)
	require.NoError(t, err)
	require.Equal(t, include.Marker+main+"\n34 35 +\n", got)
}

func TestResolveNested(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "std.rk", "const ARGC 0 end\n")
	main := writeFile(t, dir, "main.rk", "include \"std.rk\"\nARGC\n")

	got, err := include.Resolve(main)
	require.NoError(t, err)
	require.Contains(t, got, "std.rk")
	require.Contains(t, got, "const ARGC 0 end")
	require.Contains(t, got, "ARGC\n")
	// the included file's content must appear before the including file's.
	require.Less(t, indexOf(got, "const ARGC"), indexOf(got, "ARGC\n"))
}

func TestResolveMissingFile(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.rk", "include \"std.rk\"\n1 2 +\n")

	_, err := include.Resolve(main)
	require.Error(t, err)
}

func TestResolveIncludeNotAtTop(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "std.rk", "const ARGC 0 end\n")
	main := writeFile(t, dir, "main.rk", "1 2 +\ninclude \"std.rk\"\n")

	_, err := include.Resolve(main)
	require.Error(t, err)
}

func TestResolveCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rk", "include \"b.rk\"\n")
	main := writeFile(t, dir, "b.rk", "include \"a.rk\"\n")
	_ = main

	bPath := filepath.Join(dir, "b.rk")
	_, err := include.Resolve(bPath)
	require.Error(t, err)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
