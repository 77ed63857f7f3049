package shell

import (
	"io"
	"os"
)

// Config carries the ambient knobs the CLI layer needs beyond the job-
// control core's own data model: prompt text, history file location, and
// the writers job messages go to (overridable in tests so nothing needs a
// real tty to exercise).
type Config struct {
	Prompt      string
	HistoryFile string

	// NoRC is retained for interface compatibility with a traditional
	// shell's --norc flag; this module has no rc-file semantics to skip.
	NoRC bool

	// JobControl enables process-group/tty-ownership tracking. A shell
	// with JobControl false spawns everything via the Simple variant and
	// never touches a controlling terminal.
	JobControl bool

	// UseSessionHelper routes every job-controlled pipeline, foreground or
	// background, through the session spawner variant (a re-exec'd helper
	// that becomes its own session leader) instead of the ordinary
	// process-group spawner. It has no effect when JobControl is false. For
	// a GUI host that wants a job running under its own pty, distinct
	// from the shell's own controlling terminal.
	UseSessionHelper bool

	Stdout io.Writer
	Stderr io.Writer
}

func (c *Config) setDefaults() {
	if c.Prompt == "" {
		c.Prompt = "$ "
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
}
