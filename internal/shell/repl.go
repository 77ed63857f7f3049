package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Run drives an interactive read-eval-print loop over rl, the way
// haricheung-agentic-shell's cmd/agsh wires readline.Config and loops on
// rl.Readline() — double Ctrl-C (readline.ErrInterrupt) ends the session
// cleanly rather than being treated as a line. Returns the exit builtin's
// code, or 0 on EOF.
func (s *Shell) Run() int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            s.Config.Prompt,
		HistoryFile:       s.Config.HistoryFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		AutoComplete:      &completerAdapter{s: s},
	})
	if err != nil {
		fmt.Fprintf(s.Config.Stderr, "gsh: readline: %v\n", err)
		return 1
	}
	defer rl.Close()

	var lines []string
	s.historyLines = func() []string { return lines }

	interrupted := false
	for {
		s.Jobs.PrintMessages()

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if interrupted {
				return 0
			}
			interrupted = true
			continue
		}
		interrupted = false
		if err == io.EOF {
			return 0
		}
		if err != nil {
			fmt.Fprintf(s.Config.Stderr, "gsh: %v\n", err)
			return 1
		}

		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}

		s.EvalLine(line)
		if exiting, code := s.Exited(); exiting {
			return code
		}
	}
}

// RunCommand evaluates a single line non-interactively (the --command
// flag's path) and returns the exit builtin's code, or 0.
func (s *Shell) RunCommand(line string) int {
	s.EvalLine(line)
	s.Jobs.PrintMessages()
	_, code := s.Exited()
	return code
}
