// Package complete implements spec.md §4.9's completion helper and wires
// it into a github.com/chzyer/readline AutoCompleter, since the line
// editor is a collaborator this module integrates with rather than
// reimplements.
package complete

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gsh-project/gsh/internal/cwd"
	"github.com/gsh-project/gsh/internal/wordexpand"
)

// Completer implements spec.md §4.9's complete(context, stem) contract
// against a shell's logical cwd.
type Completer struct {
	Cwd *cwd.Cwd
}

// New returns a completer resolving filename candidates against c.
func New(c *cwd.Cwd) *Completer {
	return &Completer{Cwd: c}
}

// Complete returns the sorted candidate list for stem, given the line
// buffer up to it. A whitespace-only context (stem is the first word on
// the line) merges PATH command-name completion with filename completion;
// any other context is filename-only.
func (c *Completer) Complete(context, stem string) []string {
	var candidates []string
	if strings.TrimSpace(context) == "" {
		candidates = append(candidates, c.commandCandidates(stem)...)
	}
	candidates = append(candidates, c.filenameCandidates(stem)...)

	sort.Strings(candidates)
	return dedup(candidates)
}

// commandCandidates scans $PATH for executables whose name has stem as a
// prefix.
func (c *Completer) commandCandidates(stem string) []string {
	var out []string
	seen := map[string]bool{}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasPrefix(name, stem) || seen[name] {
				continue
			}
			info, err := e.Info()
			if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// filenameCandidates performs filename completion relative to the
// completer's cwd handle, preserving any directory prefix (including
// multiple slashes) already present in stem, appending "/" to directory
// results, and expanding (then re-contracting) a leading "~".
func (c *Completer) filenameCandidates(stem string) []string {
	expanded, reverse := wordexpand.ExpandTilde(stem)

	dir, prefix := filepath.Split(expanded)
	lookupDir := dir
	if lookupDir == "" {
		lookupDir = "."
	}

	base, openErr := c.resolveDir(lookupDir)
	if openErr != nil {
		return nil
	}
	defer base.Close()

	entries, err := base.ReadDir(-1)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		full := dir + e.Name()
		if e.IsDir() {
			full += "/"
		}
		out = append(out, reverse(full))
	}
	return out
}

func (c *Completer) resolveDir(dir string) (*os.File, error) {
	if filepath.IsAbs(dir) {
		return os.Open(dir)
	}
	base, err := c.Cwd.GetCwd()
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(base, dir))
}

func dedup(in []string) []string {
	out := in[:0]
	var last string
	for i, s := range in {
		if i > 0 && s == last {
			continue
		}
		out = append(out, s)
		last = s
	}
	return out
}
