// Package procgroup implements spec.md §3's process-group policy: the
// shared object a pipeline's process specs all carry so that the first
// spawned process establishes the pgid and every later one joins it.
package procgroup

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Policy carries {foreground_flag, tty_handle?, pgid_cell} per spec.md §3.
// A Policy is shared by every Spec in one pipeline/job: the first call to
// InitProcess fills the pgid cell; every subsequent call joins that pgid.
type Policy struct {
	mu         sync.Mutex
	pgid       int
	Foreground bool
	TTY        *os.File
}

// New returns a fresh policy for a pipeline that should get its own
// process group. Foreground, if true, makes the group own TTY once the
// first process starts.
func New(foreground bool, tty *os.File) *Policy {
	return &Policy{Foreground: foreground, TTY: tty}
}

// InitProcess fills the pgid cell on the first call with pid and returns
// the pgid every caller (this one and later ones) should join. It is safe
// to call concurrently, matching spec.md's "first init_process(pid) call
// fills pgid_cell := pid" wording precisely: the cell is set exactly once.
func (p *Policy) InitProcess(pid int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pgid == 0 {
		p.pgid = pid
	}
	return p.pgid
}

// Pgid returns the current pgid cell, or 0 if no process has initialized
// it yet.
func (p *Policy) Pgid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pgid
}

// Join applies setpgid(pid, pgid) from the parent side, tolerating EACCES:
// spec.md §4.4 notes the child may have already exec'd by the time the
// parent gets around to this, which the kernel reports as EACCES rather
// than a hard failure. This mirrors the standard job-control idiom of
// calling setpgid from both parent and child so whichever wins the race is
// harmless — the in-kernel fork/exec path (syscall.SysProcAttr{Setpgid:
// true}) already does the child-side call; this does the matching
// parent-side call.
func (p *Policy) Join(pid int) error {
	pgid := p.InitProcess(pid)
	target := pgid
	if target == pid {
		// First process of the group: setpgid(pid, 0) means "use pid itself".
		target = 0
	}
	if err := unix.Setpgid(pid, target); err != nil {
		if err == unix.EACCES {
			return nil
		}
		return err
	}
	return nil
}

// SetForegroundFromParent hands TTY ownership to pgid via tcsetpgrp,
// tolerating EPERM/ENOTTY (spec.md §4.4: "no tty or not in the right
// session"). Used by the shell's own foreground transitions (§4.7
// shell_to_foreground and fg); the per-spawn foreground handoff during
// exec is instead performed in-kernel via SysProcAttr{Foreground: true},
// with the same tolerance approximated at the spawn layer (see
// spawn_group.go).
func SetForegroundFromParent(tty *os.File, pgid int) error {
	if tty == nil {
		return nil
	}
	err := unix.IoctlSetPointerInt(int(tty.Fd()), unix.TIOCSPGRP, pgid)
	if err == unix.EPERM || err == unix.ENOTTY || err == unix.EIO {
		return nil
	}
	return err
}
