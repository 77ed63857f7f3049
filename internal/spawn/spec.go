package spawn

import (
	"os"

	"github.com/gsh-project/gsh/internal/procgroup"
)

// Credentials is the optional {uid, gid, groups} spec.md §3 allows a
// process spec to carry, applied in order setgroups → setgid → setuid
// (spec.md §4.4) so that dropping gid/uid privilege happens only after
// supplementary groups are fixed.
type Credentials struct {
	UID    uint32
	GID    uint32
	Groups []uint32
}

// Spec is the unit of work submitted to a spawner (spec.md §3's "process
// spec"). A Spec is constructed during evaluation, consumed by exactly one
// spawn call, and then dropped — callers must not reuse a Spec across two
// spawns.
type Spec struct {
	// Argv is the non-empty argument vector; Argv[0] is the program name
	// as typed (before PATH resolution).
	Argv []string

	// Fds maps destination fd → owned source file. Per spec.md §3's
	// invariant, 0, 1, and 2 must always be present; only the destinations
	// present here (plus those three) survive into the child.
	Fds map[int]*os.File

	// CwdHandle, if set, is an O_DIRECTORY handle the child should run in.
	// See SPEC_FULL.md §4.4: this is resolved to a path via /proc/self/fd
	// immediately before spawn, since Go's fork/exec primitive has no
	// pre-exec fchdir(handle) hook.
	CwdHandle *os.File

	// Environ is the child's environment; nil means inherit the shell's.
	Environ []string

	// Credentials, if set, are applied before exec.
	Credentials *Credentials

	// Policy is the process-group policy this spec's process should join.
	// Nil means "no job control" (the Simple spawner variant).
	Policy *procgroup.Policy
}

// Validate checks the invariants spec.md §3 states about a Spec, returning
// a descriptive error rather than letting a malformed spec reach the
// kernel in a partially-applied state.
func (s *Spec) Validate() error {
	if len(s.Argv) == 0 {
		return ErrEmptyArgv
	}
	if !requiredFDs(s.Fds) {
		return &Error{Name: s.Argv[0], Err: os.ErrInvalid}
	}
	return nil
}
