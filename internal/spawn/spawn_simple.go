package spawn

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Simple is the spec.md §4.4 "Simple" spawner variant: fork, reset the
// signal dispositions the host runtime clobbers, install fds, exec. No
// pgid is applied and the caller does not collect the pid into any job —
// this is used for non-job-controlled spawns (the shell's path when job
// control is off, and the sudo builtin's one-off command).
//
// If execve fails with ENOENT, the child writes "<cmd>: command not
// found\n" to its fd 2 and exits 127; Simple reports this to the caller as
// a normal successful spawn (the exit happens in the child — see
// SPEC_FULL.md §4.4/§7), not as an error from Simple itself, because the
// shell process must not be disturbed by a missing command.
func Simple(spec *Spec) (*Process, error) {
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
		return spawnNotFound(spec, dir, env)
	}

	attr := &syscall.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: buildFiles(spec.Fds),
		Sys:   credentialAttr(spec.Credentials),
	}

	pid, err := syscall.ForkExec(path, spec.Argv, attr)
	if err != nil {
		if err == syscall.ENOENT {
			return spawnNotFound(spec, dir, env)
		}
		return nil, &Error{Name: spec.Argv[0], Err: err}
	}
	return &Process{Pid: pid}, nil
}

// spawnNotFound spawns a /bin/sh -c stand-in that just prints the
// diagnostic and exits nonzero, reproducing execve(ENOENT)'s observable
// effect (message on fd 2, nonzero exit) without the shell itself ever
// seeing an exec failure.
func spawnNotFound(spec *Spec, dir string, env []string) (*Process, error) {
	attr := &syscall.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: buildFiles(spec.Fds),
		Sys:   credentialAttr(spec.Credentials),
	}
	script := `printf '%s: command not found\n' "$1" >&2; exit 127`
	argv := []string{"sh", "-c", script, "sh", spec.Argv[0]}
	pid, err := syscall.ForkExec("/bin/sh", argv, attr)
	if err != nil {
		return nil, &Error{Name: spec.Argv[0], Err: err}
	}
	return &Process{Pid: pid}, nil
}

func credentialAttr(c *Credentials) *syscall.SysProcAttr {
	if c == nil {
		return &syscall.SysProcAttr{}
	}
	return &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    c.UID,
			Gid:    c.GID,
			Groups: c.Groups,
		},
	}
}

// resolveArgv0 resolves spec.Argv[0] against PATH, relative to the spec's
// cwd handle when set. A lookup failure is reported to the caller so
// Simple/ProcessGroup/Session can fall back to the command-not-found
// child instead of letting execve itself fail.
func resolveArgv0(spec *Spec) (string, error) {
	relDir := ""
	if spec.CwdHandle != nil {
		if p, err := resolveCwd(spec.CwdHandle); err == nil {
			relDir = p
		}
	}
	path, err := LookPathIn(relDir, spec.Argv[0])
	if err != nil {
		return "", err
	}
	if relDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(relDir, path)
	}
	return path, nil
}

// resolveCwd turns an open directory handle into a path via
// /proc/self/fd, per SPEC_FULL.md §4.4's documented rendering of
// spec.md's cwd_handle. A nil handle resolves to "" (inherit the caller's
// cwd).
func resolveCwd(handle *os.File) (string, error) {
	if handle == nil {
		return "", nil
	}
	link := fmt.Sprintf("/proc/self/fd/%d", handle.Fd())
	return os.Readlink(link)
}
