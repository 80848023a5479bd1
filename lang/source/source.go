// Package source caches the lines of on-disk source files so that
// diagnostics can quote the offending line without re-reading and
// re-splitting a file on every error.
package source

import (
	"os"
	"strings"
	"sync"
)

var (
	mu    sync.Mutex
	cache = make(map[string][]string)
)

// Line returns the 1-based row-th line of filename, and false if the file
// cannot be read or the row is out of range. Files are read at most once per
// process; the parsed lines are kept in an in-memory cache.
func Line(filename string, row int) (string, bool) {
	mu.Lock()
	lines, ok := cache[filename]
	if !ok {
		b, err := os.ReadFile(filename)
		if err == nil {
			lines = strings.Split(string(b), "\n")
		}
		cache[filename] = lines
	}
	mu.Unlock()

	if row < 1 || row > len(lines) {
		return "", false
	}
	return lines[row-1], true
}

// Reset discards the cache. It exists for tests that write a fixture, read
// it, rewrite it and read it again in the same process.
func Reset() {
	mu.Lock()
	cache = make(map[string][]string)
	mu.Unlock()
}
