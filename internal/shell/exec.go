package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/gsh-project/gsh/internal/ast"
	"github.com/gsh-project/gsh/internal/eval"
	"github.com/gsh-project/gsh/internal/job"
	"github.com/gsh-project/gsh/internal/sessionhelper"
	"github.com/gsh-project/gsh/internal/spawn"
)

// executeJob evaluates jobExp and spawns it, per spec.md §4.2's "hands
// them to the active spawner, and — if foreground — blocks the shell
// until the job leaves running". text is the verbatim command line, kept
// only for job-message formatting.
func (s *Shell) executeJob(jobExp *ast.JobExp, text string) {
	result, err := s.Eval.EvalJob(jobExp)
	if err != nil {
		if err == spawn.ErrEmptyArgv {
			return
		}
		fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
		return
	}

	switch {
	case result.Policy == nil:
		s.executeSimple(result)
	case s.Config.UseSessionHelper:
		s.executeSession(result, text)
	default:
		s.executeGroup(result, text)
	}
}

// executeSimple runs every stage via the Simple spawner variant (no job
// control at all): each foreground job is waited on synchronously since
// there is no job to register with the dispatcher, matching spec.md
// §4.4's "the parent does not collect a pid into any job" for this
// variant.
func (s *Shell) executeSimple(result *eval.Result) {
	pids := make([]int, 0, len(result.Specs))
	for _, spec := range result.Specs {
		proc, err := spawn.Simple(spec)
		if err != nil {
			fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
			continue
		}
		pids = append(pids, proc.Pid)
	}
	if result.Background {
		return
	}
	for _, pid := range pids {
		s.waitPidTerminal(pid)
	}
}

// waitPidTerminal blocks, via the dispatcher, until pid reports a terminal
// status. Used only by the no-job-control path, where there is no Job to
// subscribe to.
func (s *Shell) waitPidTerminal(pid int) {
	done := make(chan struct{})
	s.Dispatcher.AddHandler(pid, func(st *spawn.State) {
		if st.Terminal() {
			close(done)
		}
	})
	for {
		select {
		case <-done:
			return
		default:
			s.Dispatcher.Once(true)
		}
	}
}

// executeGroup is the ordinary job-controlled path: spawn every stage
// under the pipeline's shared process-group policy, register each pid
// with the job table, and — if foreground — block until the job leaves
// running (spec.md §4.7).
func (s *Shell) executeGroup(result *eval.Result, text string) {
	procs, pids, err := s.spawnAll(result.Specs, spawn.ProcessGroup)
	if err != nil {
		fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
		return
	}
	if len(pids) == 0 {
		return
	}

	for i, proc := range procs {
		s.Dispatcher.AddHandler(pids[i], proc.Apply)
	}

	j := s.Jobs.AddJob(procs, result.Policy.Pgid(), text, result.Policy, nil, !result.Background)
	if !result.Background {
		s.Jobs.WaitForeground(j)
		if err := s.Jobs.ShellToForeground(); err != nil {
			fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
		}
	}
}

// spawnAll spawns every spec with fn, returning parallel job.Proc/pid
// slices for the specs that spawned successfully.
func (s *Shell) spawnAll(specs []*spawn.Spec, fn func(*spawn.Spec) (*spawn.Process, error)) ([]*job.Proc, []int, error) {
	procs := make([]*job.Proc, 0, len(specs))
	pids := make([]int, 0, len(specs))
	for _, spec := range specs {
		proc, err := fn(spec)
		if err != nil {
			return procs, pids, err
		}
		procs = append(procs, job.NewProc(proc.Pid))
		pids = append(pids, proc.Pid)
	}
	return procs, pids, nil
}

// executeSession runs the pipeline under the Session spawner variant
// (spec.md §4.6): a fresh pty is allocated via creack/pty (a GUI host
// would instead hand over one of its own panes), the shell's own stdin is
// put into raw mode for the duration of the foreground wait via
// golang.org/x/term, and the pty's master side is copied to the shell's
// stdout so the job's output is still visible locally.
func (s *Shell) executeSession(result *eval.Result, text string) {
	withXTerm(result.Specs)

	master, slave, err := pty.Open()
	if err != nil {
		fmt.Fprintf(s.Config.Stderr, "gsh: session: %v\n", err)
		return
	}
	defer slave.Close()

	sess, err := sessionhelper.Launch(result.Specs, slave)
	if err != nil {
		master.Close()
		fmt.Fprintf(s.Config.Stderr, "gsh: session: %v\n", err)
		return
	}

	go io.Copy(s.Config.Stdout, master)
	go sess.Pump(s.Dispatcher)

	procs := make([]*job.Proc, 0, len(sess.Pids))
	for _, pid := range sess.Pids {
		p := job.NewProc(pid)
		s.Dispatcher.Track(pid, p.Apply)
		procs = append(procs, p)
	}
	if len(procs) == 0 {
		master.Close()
		return
	}

	var pgid int
	if result.Policy != nil {
		pgid = sess.Pids[0]
	}

	toForeground := func() error {
		return pty.InheritSize(os.Stdin, master)
	}

	j := s.Jobs.AddJob(procs, pgid, text, result.Policy, toForeground, !result.Background)
	if result.Background {
		return
	}

	var restore func()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prev, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			restore = func() { term.Restore(int(os.Stdin.Fd()), prev) }
		}
	}
	s.Jobs.WaitForeground(j)
	if restore != nil {
		restore()
	}
	master.Close()
}

// withXTerm forces TERM=xterm in every spec's environment, per spec.md
// §6's "TERM (forced to xterm for session-spawned jobs)".
func withXTerm(specs []*spawn.Spec) {
	for _, spec := range specs {
		env := spec.Environ
		if env == nil {
			env = os.Environ()
		}
		spec.Environ = setEnv(env, "TERM", "xterm")
	}
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			out = append(out, prefix+value)
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, prefix+value)
	}
	return out
}

// runInline spawns a one-off command (the sudo builtin's payload) under
// the given credentials, waiting for it synchronously the way the
// no-job-control path does.
func (s *Shell) runInline(argv []string, creds *spawn.Credentials) {
	spec := &spawn.Spec{
		Argv:        argv,
		Fds:         map[int]*os.File{0: os.Stdin, 1: os.Stdout, 2: os.Stderr},
		CwdHandle:   s.Cwd.Handle(),
		Credentials: creds,
	}
	proc, err := spawn.Simple(spec)
	if err != nil {
		fmt.Fprintf(s.Config.Stderr, "gsh: sudo: %v\n", err)
		return
	}
	s.waitPidTerminal(proc.Pid)
}
