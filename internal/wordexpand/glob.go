package wordexpand

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NeedsGlob reports whether pattern contains a glob trigger character.
// Spec.md §4.1 calls this out as a deliberate optimization — and notes
// bracket classes ([abc]) are NOT in the trigger set, a documented gap:
// a pattern containing only brackets and no "*"/"?" is never glob-matched.
func NeedsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// Glob performs spec.md §4.1's glob operation: filename expansion relative
// to cwdHandle (an open directory handle, not the process cwd — see
// internal/cwd). Matches are sorted lexicographically; if no entry
// matches, the literal pattern is returned as the single result, matching
// bash's interactive default (no nullglob).
func Glob(pattern string, cwdHandle *os.File) ([]string, error) {
	if !NeedsGlob(pattern) {
		return []string{pattern}, nil
	}

	dir, err := resolveHandle(cwdHandle)
	if err != nil {
		return []string{pattern}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil || len(matches) == 0 {
		return []string{pattern}, nil
	}

	sort.Strings(matches)
	return matches, nil
}

func resolveHandle(handle *os.File) (string, error) {
	if handle == nil {
		return ".", nil
	}
	link := fmt.Sprintf("/proc/self/fd/%d", handle.Fd())
	return os.Readlink(link)
}
