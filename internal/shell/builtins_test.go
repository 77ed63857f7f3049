package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsh-project/gsh/internal/ast"
	"github.com/gsh-project/gsh/internal/parser"
)

// cmdOf parses line and returns its single pipeline stage, for tests that
// need an *ast.CommandExp without going through a full EvalLine.
func cmdOf(t *testing.T, line string) *ast.CommandExp {
	t.Helper()
	job, err := parser.Parse(line)
	require.NoError(t, err)
	require.Len(t, job.Pipeline.Commands, 1)
	return job.Pipeline.Commands[0]
}

// newTestShell builds a Shell rooted at a fresh temp directory, with no
// job control (so New never tries to claim a controlling tty) and
// buffer-backed Stdout/Stderr so builtin output is assertable without a
// real terminal.
func newTestShell(t *testing.T) (sh *Shell, stdout, stderr *bytes.Buffer, dir string) {
	t.Helper()
	dir = t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}
	sh, err = New(Config{JobControl: false, Stdout: stdout, Stderr: stderr})
	require.NoError(t, err)
	return sh, stdout, stderr, dir
}

func TestBuiltinCdSequentialApply(t *testing.T) {
	sh, _, stderr, dir := newTestShell(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))

	sh.EvalLine("cd a b")

	assert.Empty(t, stderr.String())
	got, err := sh.Cwd.GetCwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b"), got)
}

func TestBuiltinCdNoArgsUsesHome(t *testing.T) {
	sh, _, stderr, _ := newTestShell(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	sh.EvalLine("cd")

	assert.Empty(t, stderr.String())
	got, err := sh.Cwd.GetCwd()
	require.NoError(t, err)
	assert.Equal(t, home, got)
}

func TestBuiltinCdMissingDirReportsError(t *testing.T) {
	sh, _, stderr, _ := newTestShell(t)
	sh.EvalLine("cd nonexistent-subdir")
	assert.Contains(t, stderr.String(), "cd")
}

func TestBuiltinExitSetsCodeAndFlag(t *testing.T) {
	sh, _, _, _ := newTestShell(t)
	sh.EvalLine("exit 7")
	exiting, code := sh.Exited()
	assert.True(t, exiting)
	assert.Equal(t, 7, code)
}

func TestBuiltinExitDefaultsToZero(t *testing.T) {
	sh, _, _, _ := newTestShell(t)
	sh.EvalLine("exit")
	exiting, code := sh.Exited()
	assert.True(t, exiting)
	assert.Equal(t, 0, code)
}

func TestBuiltinJobsEmptyTablePrintsNothing(t *testing.T) {
	sh, stdout, _, _ := newTestShell(t)
	sh.EvalLine("jobs")
	assert.Empty(t, stdout.String())
}

func TestBuiltinHistoryWithoutReplPrintsNothing(t *testing.T) {
	sh, stdout, _, _ := newTestShell(t)
	sh.EvalLine("history")
	assert.Empty(t, stdout.String())
}

func TestBuiltinHistoryListsWiredLines(t *testing.T) {
	sh, stdout, _, _ := newTestShell(t)
	sh.historyLines = func() []string { return []string{"echo hi", "ls"} }

	sh.EvalLine("history")

	out := stdout.String()
	assert.Contains(t, out, "echo hi")
	assert.Contains(t, out, "ls")
}

func TestBuiltinBgNoJobsErrors(t *testing.T) {
	sh, _, stderr, _ := newTestShell(t)
	sh.EvalLine("bg")
	assert.Contains(t, stderr.String(), "no such job")
}

func TestBuiltinFgNoJobsErrors(t *testing.T) {
	sh, _, stderr, _ := newTestShell(t)
	sh.EvalLine("fg")
	assert.Contains(t, stderr.String(), "no such job")
}

func TestSudoUnavailableFallsThroughToSpawn(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	sh, _, _, _ := newTestShell(t)
	ok := sh.tryBuiltin(cmdOf(t, "sudo whoami"))
	assert.False(t, ok, "sudo must not be recognized as a builtin without SUDO_USER+euid0")
}

func TestBlankLineIsANoOp(t *testing.T) {
	sh, stdout, stderr, _ := newTestShell(t)
	sh.EvalLine("   ")
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestParseErrorIsReportedNotPanicked(t *testing.T) {
	sh, _, stderr, _ := newTestShell(t)
	sh.EvalLine(`"unterminated`)
	assert.Contains(t, stderr.String(), "gsh:")
}
