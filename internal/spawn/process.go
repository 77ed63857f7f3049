package spawn

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Process is a lightweight handle to a spawned child, used for sending it
// signals. Unlike orospakr-spawnexec's Process, it has no synchronous Wait:
// status delivery is entirely the wait dispatcher's job (§4.5), so the
// shell's event loop never blocks directly on waitpid.
type Process struct {
	Pid int
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Signal sends sig to the process.
func (p *Process) Signal(sig os.Signal) error {
	if p.Pid <= 0 {
		return os.ErrInvalid
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		return os.ErrInvalid
	}
	return unix.Kill(p.Pid, s)
}

// SignalGroup sends sig to every process in the group headed by pgid. Job
// control operates on whole process groups (bg/fg/SIGSTOP), so this is the
// primitive the job controller actually calls, rather than signaling
// individual pids one at a time.
func SignalGroup(pgid int, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return os.ErrInvalid
	}
	// A negative pid argument to kill(2) targets the process group.
	return unix.Kill(-pgid, s)
}

// State describes one wait status delivered by the dispatcher for a child.
// It is the Go rendering of spec.md §3's "state transitions driven by
// wait-status callbacks".
type State struct {
	pid    int
	status unix.WaitStatus
}

// NewState wraps a raw wait status for pid, as observed by a reaper
// goroutine.
func NewState(pid int, status unix.WaitStatus) *State {
	return &State{pid: pid, status: status}
}

// Pid returns the pid the status was reported for.
func (s *State) Pid() int { return s.pid }

// Exited reports whether the process terminated by calling exit.
func (s *State) Exited() bool { return s.status.Exited() }

// Signaled reports whether the process terminated due to a signal.
func (s *State) Signaled() bool { return s.status.Signaled() }

// Stopped reports whether the status reflects the process being currently
// stopped (Ctrl-Z or SIGSTOP), not terminated.
func (s *State) Stopped() bool { return s.status.Stopped() }

// Continued reports whether this status reflects a SIGCONT delivery.
func (s *State) Continued() bool { return s.status.Continued() }

// Terminal reports whether this status is final for its pid: spec.md §4.5
// guarantees the dispatcher calls add_handler's callback at most once with
// Terminal() == true.
func (s *State) Terminal() bool {
	return s.status.Exited() || s.status.Signaled()
}

// ExitCode returns the exit code, or -1 if the process did not exit
// normally.
func (s *State) ExitCode() int {
	if !s.status.Exited() {
		return -1
	}
	return s.status.ExitStatus()
}

// StopSignal returns the signal that stopped the process; valid only when
// Stopped() is true.
func (s *State) StopSignal() syscall.Signal {
	return s.status.StopSignal()
}

// TermSignal returns the signal that terminated the process; valid only
// when Signaled() is true.
func (s *State) TermSignal() syscall.Signal {
	return s.status.Signal()
}

func (s *State) String() string {
	switch {
	case s.status.Exited():
		code := s.status.ExitStatus()
		if code == 0 {
			return "exit status 0"
		}
		return fmt.Sprintf("exit status %d", code)
	case s.status.Signaled():
		sig := s.status.Signal()
		str := sig.String()
		if s.status.CoreDump() {
			str += " (core dumped)"
		}
		return "signal: " + str
	case s.status.Stopped():
		return "stop signal: " + s.status.StopSignal().String()
	case s.status.Continued():
		return "continued"
	}
	return fmt.Sprintf("unknown status: %v", s.status)
}
