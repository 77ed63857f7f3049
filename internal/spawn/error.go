package spawn

import (
	"errors"
	"fmt"
)

// Error is returned by LookPath when it fails to classify a file as an
// executable.
type Error struct {
	// Name is the file name for which the error occurred.
	Name string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return "spawn: " + e.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitError reports a spawned process that terminated with a nonzero exit
// status or a signal, as learned from the wait dispatcher rather than a
// synchronous Wait call.
type ExitError struct {
	Pid   int
	State *State
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("pid %d: %s", e.Pid, e.State.String())
}

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = errors.New("executable file not found in $PATH")

// ErrDot indicates that a path lookup resolved to an executable
// in the current directory due to '.' being in the path, either
// implicitly or explicitly.
var ErrDot = errors.New("cannot run executable found relative to current directory")

// ErrEmptyArgv is returned by the evaluator when a command's argument list
// expanded to zero words. Spec.md's "expansion-yielded empty argv" case:
// callers must skip the spawn silently rather than surface this to the
// user.
var ErrEmptyArgv = errors.New("spawn: empty argv")

// ErrUnknownFD is returned when a redirection such as "<&N" refers to a
// descriptor absent from the spec's fd table. Spec.md documents this as an
// open gap: it is left as a raw lookup failure rather than a clean
// diagnostic.
type ErrUnknownFD struct {
	FD int
}

func (e *ErrUnknownFD) Error() string {
	return fmt.Sprintf("spawn: unknown file descriptor %d", e.FD)
}

// wrappedError wraps an error with a message prefix.
type wrappedError struct {
	prefix string
	err    error
}

func (w *wrappedError) Error() string {
	return w.prefix + w.err.Error()
}

func (w *wrappedError) Unwrap() error {
	return w.err
}

// wrapError wraps err with a message prefix.
func wrapError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	return &wrappedError{prefix: prefix, err: err}
}
