package spawn

import (
	"os"
	"path/filepath"
	"strings"
)

// LookPath searches for an executable named file in the directories named
// by the PATH environment variable, resolving "." path elements against the
// process's real working directory. It is a thin wrapper around
// LookPathIn("", file).
func LookPath(file string) (string, error) {
	return LookPathIn("", file)
}

// LookPathIn is LookPath, but resolves relative PATH elements (including
// the implicit "." for an empty element) against relDir instead of the
// process-wide working directory. The shell's logical cwd tracker (§4.8)
// can differ from the process cwd, so command lookup for a given shell
// instance must go through this, not LookPath, whenever a non-default
// logical cwd is in play. relDir == "" means "the process cwd".
//
// If file contains a slash, it is tried directly (itself resolved against
// relDir when relative) and PATH is not consulted.
func LookPathIn(relDir, file string) (string, error) {
	resolve := func(p string) string {
		if relDir == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(relDir, p)
	}

	if strings.Contains(file, "/") {
		full := resolve(file)
		if err := findExecutable(full); err == nil {
			return file, nil
		} else {
			return "", &Error{Name: file, Err: err}
		}
	}

	path := os.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		full := resolve(candidate)
		if err := findExecutable(full); err == nil {
			if !filepath.IsAbs(candidate) {
				return candidate, &Error{Name: file, Err: ErrDot}
			}
			return candidate, nil
		}
	}
	return "", &Error{Name: file, Err: ErrNotFound}
}

// findExecutable checks if the file at path exists and is executable.
func findExecutable(file string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	m := fi.Mode()
	if m.IsDir() {
		return os.ErrPermission
	}
	if m&0111 != 0 {
		return nil
	}
	return os.ErrPermission
}
