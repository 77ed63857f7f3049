package spawn

import (
	"errors"
	"os"
	"syscall"
)

// ProcessGroup is spec.md §4.4's "Process group" spawner variant: the
// child joins spec.Policy's pgid (creating it on the first call), and if
// the policy is foreground, the child also takes ownership of the
// controlling tty via tcsetpgrp before exec.
//
// Go's fork/exec primitive performs the same setpgid+TIOCSPGRP sequence
// the original asyncio-based shell does, but in-kernel and without a
// tolerant-of-EPERM/ENOTTY escape hatch (see SPEC_FULL.md §4.4): a failed
// TIOCSPGRP aborts the whole ForkExec. ProcessGroup approximates spec.md's
// tolerance at the layer it controls: on that specific failure it retries
// once with Foreground suppressed, so a job started with no controlling
// tty (or the wrong session) still spawns, just without tty ownership.
func ProcessGroup(spec *Spec) (*Process, error) {
	if spec.Policy == nil {
		return nil, errors.New("spawn: ProcessGroup requires a non-nil Policy")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	path, lookErr := resolveArgv0(spec)
	dir, err := resolveCwd(spec.CwdHandle)
	if err != nil {
		return nil, err
	}
	env := spec.Environ
	if env == nil {
		env = os.Environ()
	}
	if lookErr != nil {
		// Run the command-not-found stand-in under the same group policy,
		// so it too joins the job's pgid.
		notFound := *spec
		notFound.Argv = []string{"sh", "-c", `printf '%s: command not found\n' "$1" >&2; exit 127`, "sh", spec.Argv[0]}
		spec, path = &notFound, "/bin/sh"
	}

	pid, err := forkExecGroup(spec, path, dir, env, spec.Policy.Foreground && spec.Policy.TTY != nil)
	if isForegroundTTYError(err) {
		pid, err = forkExecGroup(spec, path, dir, env, false)
	}
	if err != nil {
		return nil, &Error{Name: spec.Argv[0], Err: err}
	}

	proc := &Process{Pid: pid}

	// Mirror the child's setpgid from the parent side, tolerating EACCES
	// for the race where the child has already exec'd (spec.md §4.4).
	if err := spec.Policy.Join(pid); err != nil {
		return proc, err
	}
	return proc, nil
}

func forkExecGroup(spec *Spec, path, dir string, env []string, foreground bool) (int, error) {
	pgid := spec.Policy.Pgid() // 0 until the first process of the group starts
	sys := &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}
	if cred := spec.Credentials; cred != nil {
		sys.Credential = &syscall.Credential{Uid: cred.UID, Gid: cred.GID, Groups: cred.Groups}
	}
	if foreground {
		sys.Foreground = true
		sys.Ctty = int(spec.Policy.TTY.Fd())
		// Foreground implies Setpgid in the kernel path; Pgid == 0 there
		// means "use the new child's own pid", which is exactly right for
		// the first process of a fresh group.
	}

	attr := &syscall.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: buildFiles(spec.Fds),
		Sys:   sys,
	}
	return syscall.ForkExec(path, spec.Argv, attr)
}

func isForegroundTTYError(err error) bool {
	return errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EIO)
}

