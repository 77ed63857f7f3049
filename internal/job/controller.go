package job

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/procgroup"
	"github.com/gsh-project/gsh/internal/spawn"
	"github.com/gsh-project/gsh/internal/wait"
)

// Controller is spec.md §4.7's job controller: owns the job table, bridges
// wait-dispatcher events into job state, and implements jobs/bg/fg.
type Controller struct {
	Table      *Table
	Dispatcher *wait.Dispatcher
	TTY        *os.File // the shell's own controlling tty, nil if none
	ShellPgid  int
	Stdout     io.Writer
	Stderr     io.Writer

	mu      sync.Mutex
	changed chan int // job ids pushed here whenever their aggregate state changes
	quiet   map[int]bool
}

// NewController returns a controller writing job messages to stdout/stderr.
func NewController(tbl *Table, disp *wait.Dispatcher, tty *os.File, shellPgid int, stdout, stderr io.Writer) *Controller {
	return &Controller{
		Table:      tbl,
		Dispatcher: disp,
		TTY:        tty,
		ShellPgid:  shellPgid,
		Stdout:     stdout,
		Stderr:     stderr,
		changed:    make(chan int, 64),
		quiet:      make(map[int]bool),
	}
}

// AddJob registers procs (already subscribed to the dispatcher by the
// caller — see internal/shell's spawn orchestration) as a new job, prints
// the background-start message if it isn't entering the foreground, and
// returns the Job.
func (c *Controller) AddJob(procs []*Proc, pgid int, cmdText string, policy *procgroup.Policy, toForeground func() error, foreground bool) *Job {
	id := c.Table.NextID()
	j := New(id, procs, pgid, cmdText, policy, toForeground)
	c.Table.Add(j)

	j.OnStateChange(func(State) {
		select {
		case c.changed <- j.ID:
		default:
			// Channel full: print_messages will still discover the change
			// next time it walks the table, since State() reflects it
			// already. Dropping a wakeup here never loses information, only
			// (at worst) delays a redundant one.
		}
	})

	if !foreground {
		fmt.Fprintf(c.Stdout, "[%d] %d\n", j.ID, j.Pgid)
	}
	return j
}

// ShellToForeground reclaims the shell's own controlling tty, per spec.md
// §4.7: ignore SIGTTIN/SIGTTOU (handled by the shell's signal setup, not
// here) and tcsetpgrp the shell's pgid onto the tty.
func (c *Controller) ShellToForeground() error {
	if c.TTY == nil {
		return nil
	}
	return procgroup.SetForegroundFromParent(c.TTY, c.ShellPgid)
}

// PrintMessages drains the dispatcher and, for every job whose state
// changed to Stopped or Finished, writes spec.md §6's state-change message
// and removes Finished entries from the table. A job marked quiet (its
// terminal status was observed while the shell was foreground-waiting for
// it) is removed without printing, per spec.md §4.7.
func (c *Controller) PrintMessages() {
	c.Dispatcher.ReadPending()

	for {
		select {
		case id := <-c.changed:
			c.reportJob(id)
		default:
			return
		}
	}
}

func (c *Controller) reportJob(id int) {
	j, ok := c.Table.Get(id)
	if !ok {
		return
	}
	st := j.State()
	if st != Stopped && st != Finished {
		return
	}

	c.mu.Lock()
	quiet := c.quiet[id]
	c.mu.Unlock()

	if !quiet {
		fmt.Fprintf(c.Stdout, "[%d]+ %s  %s\n", j.ID, st, j.CmdText)
	}
	if st == Finished {
		c.Table.Remove(id)
		c.mu.Lock()
		delete(c.quiet, id)
		c.mu.Unlock()
	}
}

// WaitForeground blocks until j leaves Running, the way a foreground
// JobExp evaluation does (spec.md §4.2: "blocks the shell until the job
// leaves running"). It never calls waitpid directly — only the dispatcher
// does that — so it polls PrintMessages-style delivery via a local state
// subscription instead (spec.md §5: "only polls the event loop").
//
// If j finishes while this call is waiting, its terminal message is
// suppressed (quieted) since the foreground wait itself is the
// acknowledgment spec.md §4.7 refers to; a stop, however, is still
// reported, because the shell regains its own prompt at that point and the
// user needs to see why.
func (c *Controller) WaitForeground(j *Job) State {
	c.mu.Lock()
	c.quiet[j.ID] = true
	c.mu.Unlock()

	done := make(chan State, 1)
	var once sync.Once
	j.OnStateChange(func(s State) {
		if s != Running {
			once.Do(func() { done <- s })
		}
	})

	if st := j.State(); st != Running {
		return c.finishForeground(j, st)
	}

	for {
		c.Dispatcher.Once(true)
		select {
		case st := <-done:
			return c.finishForeground(j, st)
		default:
		}
	}
}

func (c *Controller) finishForeground(j *Job, st State) State {
	if st == Finished {
		c.Table.Remove(j.ID)
		c.mu.Lock()
		delete(c.quiet, j.ID)
		c.mu.Unlock()
		return st
	}
	// Stopped while in the foreground: unquiet it so the next PrintMessages
	// reports it (once), matching spec.md §4.7 scenario 6.
	c.mu.Lock()
	c.quiet[j.ID] = false
	c.mu.Unlock()
	return st
}

// Bg resumes the most recent, or id-specified, stopped job: SIGCONT to the
// pgid, flipping proc states to Running.
func (c *Controller) Bg(id int) error {
	j, ok := c.resolveJob(id)
	if !ok {
		return fmt.Errorf("bg: no such job")
	}
	fmt.Fprintf(c.Stdout, "[%d]+ %s\n", j.ID, j.CmdText)
	return sendContinue(j)
}

// Fg transfers tty ownership to id's (or the most recent stopped/running)
// job's pgid, SIGCONTs it, and blocks in the foreground wait.
func (c *Controller) Fg(id int) (State, error) {
	j, ok := c.resolveJob(id)
	if !ok {
		return Finished, fmt.Errorf("fg: no such job")
	}
	fmt.Fprintf(c.Stdout, "%s\n", j.CmdText)
	if err := j.ToForeground(); err != nil {
		return Finished, err
	}
	if err := sendContinue(j); err != nil {
		return Finished, err
	}
	return c.WaitForeground(j), nil
}

func sendContinue(j *Job) error {
	if err := signalGroup(j.Pgid, sigcont); err != nil {
		return err
	}
	// The reapers wait with WUNTRACED only, so no "continued" status ever
	// arrives for a resumed process: flip stopped procs to Running here.
	for _, p := range j.Procs {
		if p.State() == Stopped {
			p.apply(spawn.NewState(p.Pid, unix.WaitStatus(0xFFFF)))
		}
	}
	return nil
}

// Jobs prints spec.md §6's `jobs` listing: one line per live job, in id
// order.
func (c *Controller) Jobs() {
	for _, j := range c.Table.All() {
		fmt.Fprintf(c.Stdout, "[%d] %s  %s\n", j.ID, j.State(), j.CmdText)
	}
}

func (c *Controller) resolveJob(id int) (*Job, bool) {
	if id > 0 {
		return c.Table.Get(id)
	}
	return c.Table.MostRecent()
}
