// Package shell wires the job-control core (cwd tracker, evaluator,
// spawner, wait dispatcher, job controller) together into a runnable
// interactive shell, the way joshuarubin-teleport-job-worker's
// internal/server ties its own core pieces to a CLI entrypoint.
package shell

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/gsh-project/gsh/internal/complete"
	"github.com/gsh-project/gsh/internal/cwd"
	"github.com/gsh-project/gsh/internal/eval"
	"github.com/gsh-project/gsh/internal/job"
	"github.com/gsh-project/gsh/internal/parser"
	"github.com/gsh-project/gsh/internal/wait"
)

// Shell is the top-level object a REPL or a single `--command` evaluation
// drives: the logical cwd, the evaluator bound to it, the wait dispatcher,
// and the job controller, plus whatever controlling tty this process has.
type Shell struct {
	Config Config

	Cwd        *cwd.Cwd
	Eval       *eval.Evaluator
	Dispatcher *wait.Dispatcher
	Jobs       *job.Controller
	Completer  *complete.Completer

	tty       *os.File
	shellPgid int

	exiting  bool
	exitCode int

	// historyLines, if set by a REPL driver, returns the interactive
	// reader's recall buffer in order; the history builtin has nothing to
	// report without one (see builtinHistory).
	historyLines func() []string
}

// Exited reports whether the exit builtin has been run, and the code it
// was given, for a REPL driver's loop-termination check.
func (s *Shell) Exited() (bool, int) {
	return s.exiting, s.exitCode
}

// New builds a shell rooted at the process's current working directory.
func New(cfg Config) (*Shell, error) {
	cfg.setDefaults()

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("shell: %w", err)
	}
	c, err := cwd.Open(wd)
	if err != nil {
		return nil, fmt.Errorf("shell: opening cwd: %w", err)
	}

	var tty *os.File
	if cfg.JobControl && term.IsTerminal(int(os.Stdin.Fd())) {
		tty = os.Stdin
	}

	disp := wait.New()
	ev := eval.New(c, tty, cfg.JobControl)
	tbl := job.NewTable()
	ctl := job.NewController(tbl, disp, tty, unix.Getpgrp(), cfg.Stdout, cfg.Stderr)

	s := &Shell{
		Config:     cfg,
		Cwd:        c,
		Eval:       ev,
		Dispatcher: disp,
		Jobs:       ctl,
		Completer:  complete.New(c),
		tty:        tty,
		shellPgid:  unix.Getpgrp(),
	}

	if tty != nil {
		if err := s.claimForeground(); err != nil {
			slog.Warn("could not claim controlling terminal", "err", err)
		}
	}

	return s, nil
}

// claimForeground implements spec.md §4.7's shell_to_foreground: the shell
// must never be stopped by its own terminal I/O, and must own the tty
// before its first foreground wait.
func (s *Shell) claimForeground() error {
	signal.Ignore(syscall.SIGTTIN, syscall.SIGTTOU)
	if err := unix.Setpgid(0, 0); err != nil && err != unix.EPERM {
		return err
	}
	s.shellPgid = unix.Getpgrp()
	return s.Jobs.ShellToForeground()
}

// EvalLine parses and evaluates one line, dispatching to a builtin when
// the pipeline is a single recognized builtin command, otherwise spawning
// the parsed job.
func (s *Shell) EvalLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	jobExp, err := parser.Parse(line)
	if err != nil {
		if perr, ok := err.(*parser.Error); ok {
			fmt.Fprintf(s.Config.Stderr, "gsh: %s\n%s\n%s^\n", perr.Msg, line, caretPad(perr.Offset))
		} else {
			fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
		}
		return
	}

	if len(jobExp.Pipeline.Commands) == 1 && !jobExp.Background {
		if handled := s.tryBuiltin(jobExp.Pipeline.Commands[0]); handled {
			return
		}
	}

	s.executeJob(jobExp, line)
}

func caretPad(offset int) string {
	b := make([]byte, offset)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
