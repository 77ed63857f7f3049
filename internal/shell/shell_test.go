package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalLineBackgroundSingleCommandIsNotDispatchedAsBuiltin(t *testing.T) {
	// "exit &" backgrounds what would otherwise be a recognized builtin;
	// spec.md's builtin table only intercepts foreground single commands,
	// so this must fall through to executeJob instead of actually exiting
	// the shell.
	sh, _, _, _ := newTestShell(t)
	sh.EvalLine("exit &")
	exiting, _ := sh.Exited()
	assert.False(t, exiting)
}

func TestEvalLinePipelineIsNotDispatchedAsBuiltin(t *testing.T) {
	// "exit | exit" is a two-stage pipeline; EvalLine only tries the
	// builtin table for a single-command job.
	sh, _, _, _ := newTestShell(t)
	sh.EvalLine("exit | exit")
	exiting, _ := sh.Exited()
	assert.False(t, exiting)
}

func TestEvalLineForegroundSingleCommandIsDispatchedAsBuiltin(t *testing.T) {
	sh, _, _, _ := newTestShell(t)
	sh.EvalLine("exit 3")
	exiting, code := sh.Exited()
	assert.True(t, exiting)
	assert.Equal(t, 3, code)
}

func TestCaretPadWidth(t *testing.T) {
	assert.Equal(t, "   ", caretPad(3))
	assert.Equal(t, "", caretPad(0))
}
