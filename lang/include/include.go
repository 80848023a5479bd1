// Package include implements the first stage of the pipeline: it resolves
// `include "relpath"` directives into a single flattened source text,
// prefixing every file's content with a synthetic marker line that carries
// its filename forward to the lexer.
package include

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xavierhamel/rack/lang/diag"
)

// Marker is the synthetic line the lexer recognizes as a file-delimiter: it
// rebases row numbering and the current filename for every token that
// follows, until the next Marker.
const Marker = "___rk___ __rk_newfile_rk__ ___rk___ "

// Resolve reads mainFile and recursively inlines every `include` directive
// found before the first non-blank, non-comment, non-marker line of each
// file, in pre-order (an included file's content precedes the including
// file's own body). It returns the flattened text, or the first error
// encountered: a CommandLine diag.Error for an unreadable file, or a User
// diag.Error for a misplaced `include` or a malformed directive.
//
// Unlike lex/parse/type-check, include resolution never accumulates
// errors: there is no meaningful sequel once a file cannot be found, so the
// first error halts the pipeline immediately.
func Resolve(mainFile string) (string, error) {
	visited := make(map[string]bool)
	return resolve(mainFile, visited)
}

func resolve(filename string, visited map[string]bool) (string, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	if visited[abs] {
		return "", diag.UserError(filename, 1, 1, 7,
			"include cycle detected: `%s` is included, directly or transitively, from within itself", filename)
	}
	visited[abs] = true

	content, err := os.ReadFile(filename)
	if err != nil {
		return "", diag.CommandLineError(
			"the file `%s` does not exist or cannot be opened. Check the path and permissions of the file.", filename)
	}

	var out strings.Builder
	out.WriteString(Marker)
	out.WriteString(filename)
	out.WriteString("\n")

	canInclude := true
	dir := filepath.Dir(filename)
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	for row, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !canInclude {
			if strings.HasPrefix(trimmed, "include") {
				return "", diag.UserError(filename, row+1, 1, 7,
					"you can only include files at the beginning of the file, before any other tokens")
			}
			out.WriteString(line)
			out.WriteString("\n")
			continue
		}

		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			out.WriteString(line)
			out.WriteString("\n")
			continue
		case !strings.HasPrefix(trimmed, "include"):
			canInclude = false
			out.WriteString(line)
			out.WriteString("\n")
			continue
		}

		path, err := parseDirective(trimmed)
		if err != nil {
			return "", diag.UserError(filename, row+1, 1, 7, "%s", err)
		}

		childPath := filepath.Join(dir, path)
		childContent, cerr := resolve(childPath, visited)
		if cerr != nil {
			return "", cerr
		}
		out.WriteString(childContent)
	}

	return out.String(), nil
}

// parseDirective extracts the quoted relative path from a trimmed
// `include "relpath"` line.
func parseDirective(line string) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "include"))
	if strings.Count(rest, `"`) != 2 || !strings.HasPrefix(rest, `"`) || !strings.HasSuffix(rest, `"`) {
		return "", errIncludeSyntax
	}
	path := strings.Trim(rest, `"`)
	if path == "" {
		return "", errIncludeSyntax
	}
	return path, nil
}

var errIncludeSyntax = includeSyntaxError{}

type includeSyntaxError struct{}

func (includeSyntaxError) Error() string {
	return `included file must be specified as a single quoted string, e.g. include "std.rk"`
}
