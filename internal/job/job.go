// Package job implements spec.md §4.7's job controller: the job table,
// per-process state tracking, aggregate job state, and the bg/fg/jobs
// builtins.
package job

import (
	"sync"

	"github.com/gsh-project/gsh/internal/procgroup"
	"github.com/gsh-project/gsh/internal/spawn"
)

// State is one process or job's aggregate lifecycle state (spec.md §3/§4.7).
type State int

const (
	Running State = iota
	Stopped
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Finished:
		return "Done"
	default:
		return "Unknown"
	}
}

// Proc is spec.md §3's "child process record": {pid, state, subscribers}.
type Proc struct {
	mu          sync.Mutex
	Pid         int
	state       State
	subscribers []func(State)
}

func newProc(pid int) *Proc {
	return &Proc{Pid: pid, state: Running}
}

// State returns the process's current state.
func (p *Proc) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers cb to be called whenever the process's state
// changes. Subscriptions are many-to-one (a Job subscribes to each of its
// Procs); Procs hold no reference back to their Job beyond these
// callbacks, per SPEC_FULL.md §9.
func (p *Proc) Subscribe(cb func(State)) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, cb)
	p.mu.Unlock()
}

// apply updates the process's state from a wait status and fires
// subscribers only when the aggregate state actually changed (spec.md
// §4.7: "Transitions fire subscribers only on a change").
func (p *Proc) apply(st *spawn.State) {
	next := Running
	switch {
	case st.Terminal():
		next = Finished
	case st.Stopped():
		next = Stopped
	case st.Continued():
		next = Running
	default:
		return
	}

	p.mu.Lock()
	if p.state == next {
		p.mu.Unlock()
		return
	}
	p.state = next
	subs := append([]func(State){}, p.subscribers...)
	p.mu.Unlock()

	for _, cb := range subs {
		cb(next)
	}
}

// Job is spec.md §3's aggregate: an ordered list of process records
// sharing one pgid, tracked as a single controllable unit.
type Job struct {
	mu            sync.Mutex
	ID            int
	Procs         []*Proc
	Pgid          int
	CmdText       string
	Policy        *procgroup.Policy
	state         State
	onStateChange []func(State)
	// toForeground, if set, performs whatever tty handoff this job needs
	// beyond the default tcsetpgrp(tty, pgid) — the session spawner
	// variant's jobs use a different controlling tty than the shell's own,
	// so fg must route through a job-specific closure (spec.md §4.7).
	toForeground func() error
}

// New creates a job for procs sharing pgid, running cmdText.
func New(id int, procs []*Proc, pgid int, cmdText string, policy *procgroup.Policy, toForeground func() error) *Job {
	j := &Job{
		ID:           id,
		Procs:        procs,
		Pgid:         pgid,
		CmdText:      cmdText,
		Policy:       policy,
		state:        Running,
		toForeground: toForeground,
	}
	for _, p := range procs {
		p.Subscribe(func(State) { j.recompute() })
	}
	j.state = j.aggregate()
	return j
}

// OnStateChange registers cb to be called whenever the job's aggregate
// state changes.
func (j *Job) OnStateChange(cb func(State)) {
	j.mu.Lock()
	j.onStateChange = append(j.onStateChange, cb)
	j.mu.Unlock()
}

// State returns the job's current aggregate state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// aggregate computes spec.md §8's "Aggregate state correctness" invariant:
//
//	finished iff every proc is finished
//	running  iff some proc is running (and not all finished)
//	else stopped
//
// The tie-break spec.md §4.7 calls out — concurrent stop+finish — falls
// out of this ordering for free: "finished" is only reached when every
// proc satisfies it, so a job with one finished and one still-running
// proc is "running", and one with one finished and one stopped is
// "stopped", never "finished".
func (j *Job) aggregate() State {
	allFinished := true
	anyRunning := false
	for _, p := range j.Procs {
		switch p.State() {
		case Finished:
		case Running:
			anyRunning = true
			allFinished = false
		case Stopped:
			allFinished = false
		}
	}
	switch {
	case allFinished:
		return Finished
	case anyRunning:
		return Running
	default:
		return Stopped
	}
}

func (j *Job) recompute() {
	j.mu.Lock()
	next := j.aggregate()
	changed := next != j.state
	if changed {
		j.state = next
	}
	cbs := append([]func(State){}, j.onStateChange...)
	j.mu.Unlock()

	if changed {
		for _, cb := range cbs {
			cb(next)
		}
	}
}

// ToForeground performs this job's tty handoff, defaulting to
// tcsetpgrp(shell's tty, pgid) when no job-specific closure was supplied.
func (j *Job) ToForeground() error {
	if j.toForeground != nil {
		return j.toForeground()
	}
	if j.Policy == nil || j.Policy.TTY == nil {
		return nil
	}
	return procgroup.SetForegroundFromParent(j.Policy.TTY, j.Pgid)
}

// NewProc is exported so the job controller can build child records for
// pids learned from a spawner before constructing the owning Job.
func NewProc(pid int) *Proc {
	return newProc(pid)
}

// Apply feeds a wait status into this proc's state machine. Exported so
// the controller's dispatcher callback can drive it.
func (p *Proc) Apply(st *spawn.State) {
	p.apply(st)
}
