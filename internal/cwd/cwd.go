// Package cwd implements spec.md §4.8's logical-cwd tracker: a per-shell
// directory handle distinct from the process-wide working directory, so
// more than one shell instance can coexist in a single process (used by
// the GUI host, per spec.md §9) each with its own notion of "here".
package cwd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Cwd is spec.md §3's logical cwd: {dir_handle, pwd_env_string}.
type Cwd struct {
	mu     sync.Mutex
	handle *os.File
	pwdEnv string
}

// Open opens path as an O_RDONLY|O_DIRECTORY handle and returns a tracker
// seeded with it.
func Open(path string) (*Cwd, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Cwd{handle: f, pwdEnv: abs}, nil
}

// Handle returns the tracker's current directory handle. The returned
// file must not be closed by the caller; it belongs to the tracker until
// the next successful Chdir.
func (c *Cwd) Handle() *os.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Chdir opens dir relative to the tracker's current handle (so a relative
// path resolves against the logical cwd, not the process cwd) and swaps
// it in atomically, closing the old handle only after the new one opens
// successfully.
func (c *Cwd) Chdir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var newFd int
	var err error
	if filepath.IsAbs(dir) {
		newFd, err = unix.Openat(unix.AT_FDCWD, dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	} else {
		newFd, err = unix.Openat(int(c.handle.Fd()), dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	}
	if err != nil {
		return &os.PathError{Op: "chdir", Path: dir, Err: err}
	}

	newFile := os.NewFile(uintptr(newFd), dir)
	old := c.handle
	c.handle = newFile
	old.Close()

	c.pwdEnv = c.joinLogical(dir)
	return nil
}

// joinLogical computes the new $PWD-style string without touching the
// filesystem: absolute dir replaces pwdEnv outright; relative dir appends
// onto it (".." is resolved lexically, same as a shell's $PWD bookkeeping,
// not by following symlinks on disk).
func (c *Cwd) joinLogical(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Clean(filepath.Join(c.pwdEnv, dir))
}

// RelativeOp runs f with the process-wide cwd temporarily switched to the
// tracker's handle, restoring the prior process cwd afterward. Not
// thread-safe: the process cwd is shared by every goroutine in the
// process, so a concurrent RelativeOp (or anything else that depends on
// the process cwd) racing with this one will observe the wrong directory.
// This mirrors spec.md §4.8's own documented caveat.
func (c *Cwd) RelativeOp(f func() error) error {
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := unix.Fchdir(int(c.Handle().Fd())); err != nil {
		return err
	}
	defer os.Chdir(prev)
	return f()
}

// GetCwd returns $PWD when it still refers to the same (dev, ino) as the
// tracker's handle (preserving a symlink-through path the user typed),
// falling back to the physical path read from the handle otherwise
// (spec.md §3).
func (c *Cwd) GetCwd() (string, error) {
	c.mu.Lock()
	handle := c.handle
	pwdEnv := c.pwdEnv
	c.mu.Unlock()

	var handleStat unix.Stat_t
	if err := unix.Fstat(int(handle.Fd()), &handleStat); err != nil {
		return "", err
	}

	var pwdStat unix.Stat_t
	if err := unix.Stat(pwdEnv, &pwdStat); err == nil {
		if pwdStat.Dev == handleStat.Dev && pwdStat.Ino == handleStat.Ino {
			return pwdEnv, nil
		}
	}

	return physicalPath(handle)
}

// physicalPath resolves an open directory handle to its current absolute
// path via /proc/self/fd, the same technique the spawner uses to turn a
// cwd_handle into a Dir string before exec (SPEC_FULL.md §4.4).
func physicalPath(handle *os.File) (string, error) {
	link := fmt.Sprintf("/proc/self/fd/%d", handle.Fd())
	return os.Readlink(link)
}

// SetProcessWide makes c's directory the process's actual working
// directory too, for the default shell instance, so that external
// launchers (a terminal emulator hosting the GUI) inherit a meaningful
// cwd from this process (spec.md §4.8).
func (c *Cwd) SetProcessWide() error {
	return unix.Fchdir(int(c.Handle().Fd()))
}
