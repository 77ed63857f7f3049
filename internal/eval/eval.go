// Package eval implements spec.md §4.2's evaluator: walking a parsed
// ast.JobExp into a slice of spawn.Spec ready for a spawner, wiring pipes
// between pipeline stages and resolving redirections against the shell's
// logical cwd.
package eval

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/ast"
	"github.com/gsh-project/gsh/internal/cwd"
	"github.com/gsh-project/gsh/internal/procgroup"
	"github.com/gsh-project/gsh/internal/spawn"
	"github.com/gsh-project/gsh/internal/wordexpand"
)

// Evaluator holds the state a command's spec is built relative to: the
// shell's logical cwd and (when job control is enabled) its controlling
// tty, used to seed each job's process-group policy.
type Evaluator struct {
	Cwd        *cwd.Cwd
	TTY        *os.File
	JobControl bool
}

// New returns an evaluator bound to c. tty may be nil for a shell with no
// controlling terminal (spec.md §4.4's EPERM/ENOTTY-tolerant path handles
// that case downstream in the spawner).
func New(c *cwd.Cwd, tty *os.File, jobControl bool) *Evaluator {
	return &Evaluator{Cwd: c, TTY: tty, JobControl: jobControl}
}

// Result is one evaluated job: its per-stage specs (already wired with
// pipes) in pipeline order, and the policy (nil without job control) every
// spec shares.
type Result struct {
	Specs      []*spawn.Spec
	Policy     *procgroup.Policy
	Background bool
}

// EvalJob walks job per spec.md §4.2: copies the shell's own fd 0/1/2 into
// each command's base descriptor map, applies each argument left to right
// (expanding bare words, opening file redirections relative to the cwd
// handle, and dup-linking fd redirections), and wires one pipe per
// pipeline edge.
func (e *Evaluator) EvalJob(job *ast.JobExp) (*Result, error) {
	var policy *procgroup.Policy
	if e.JobControl {
		policy = procgroup.New(!job.Background, e.TTY)
	}

	cmds := job.Pipeline.Commands
	specs := make([]*spawn.Spec, len(cmds))

	var prevRead *os.File
	for i, cmd := range cmds {
		fds := map[int]*os.File{0: os.Stdin, 1: os.Stdout, 2: os.Stderr}
		if prevRead != nil {
			fds[0] = prevRead
		}

		var nextRead *os.File
		if i < len(cmds)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				return nil, err
			}
			fds[1] = w
			nextRead = r
		}

		argv, err := e.applyCommand(cmd, fds)
		if err != nil {
			return nil, err
		}
		if len(argv) == 0 {
			return nil, spawn.ErrEmptyArgv
		}

		specs[i] = &spawn.Spec{
			Argv:      argv,
			Fds:       fds,
			CwdHandle: e.Cwd.Handle(),
			Policy:    policy,
		}
		prevRead = nextRead
	}

	return &Result{Specs: specs, Policy: policy, Background: job.Background}, nil
}

// applyCommand walks cmd's arguments in order, mutating fds in place and
// returning the accumulated argv, per spec.md §4.2.
func (e *Evaluator) applyCommand(cmd *ast.CommandExp, fds map[int]*os.File) ([]string, error) {
	var argv []string

	for _, a := range cmd.Args {
		switch arg := a.(type) {
		case ast.StringArgument:
			argv = append(argv, arg.Value)

		case ast.ExpandStringArgument:
			words, err := e.expandWord(arg.Value)
			if err != nil {
				return nil, err
			}
			argv = append(argv, words...)

		case ast.RedirectFD:
			src, ok := fds[arg.Src]
			if !ok {
				return nil, &spawn.ErrUnknownFD{FD: arg.Src}
			}
			fds[arg.Dest] = src

		case ast.RedirectFile:
			f, err := e.openRedirect(arg)
			if err != nil {
				return nil, err
			}
			fds[arg.Dest] = f
		}
	}

	return argv, nil
}

// expandWord applies tilde expansion then glob matching to a bare word
// (spec.md §4.1). Brace expansion is a separate syntactic helper, not part
// of per-argument evaluation, so a literal "{" or "}" in a word (e.g. the
// find -exec placeholder "{}") reaches argv untouched.
func (e *Evaluator) expandWord(word string) ([]string, error) {
	expanded, _ := wordexpand.ExpandTilde(word)
	return wordexpand.Glob(expanded, e.Cwd.Handle())
}

// openRedirect opens arg.Path relative to the evaluator's cwd handle
// (spec.md §4.2: "file redirections are opened relative to the shell's
// cwd handle"), using unix.Openat rather than os.Open so a relative path
// never touches the process-wide working directory.
func (e *Evaluator) openRedirect(arg ast.RedirectFile) (*os.File, error) {
	flags := unix.O_RDONLY
	var mode uint32
	if arg.Mode == ast.RedirectWrite {
		flags = unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
		mode = 0o644
	}

	fd, err := unix.Openat(int(e.Cwd.Handle().Fd()), arg.Path, flags, mode)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: arg.Path, Err: err}
	}
	return os.NewFile(uintptr(fd), arg.Path), nil
}
