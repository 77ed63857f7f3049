package shell

import "strings"

// completerAdapter satisfies chzyer/readline's AutoCompleter interface
// around a *complete.Completer, splitting the in-progress line into the
// already-typed context and the word being completed the way
// haricheung-agentic-shell's cmd/agsh wires its own completion-free
// readline.Config — except this module does supply completion, so the
// split lives here instead of in Config.
type completerAdapter struct {
	s *Shell
}

// Do implements readline.AutoCompleter. line is the full input buffer and
// pos the cursor's rune offset into it; only the prefix up to pos is ever
// relevant to completion. We stem-match the last whitespace-delimited word
// in that prefix and return each candidate's suffix, as readline.AutoCompleter
// expects.
func (a *completerAdapter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	text := string(line[:pos])
	idx := strings.LastIndexAny(text, " \t")
	stem := text
	context := ""
	if idx >= 0 {
		stem = text[idx+1:]
		context = text[:idx+1]
	}

	candidates := a.s.Completer.Complete(context, stem)
	if len(candidates) == 0 {
		return nil, 0
	}

	out := make([][]rune, 0, len(candidates))
	for _, c := range candidates {
		if !strings.HasPrefix(c, stem) {
			continue
		}
		out = append(out, []rune(c[len(stem):]))
	}
	return out, len(stem)
}
