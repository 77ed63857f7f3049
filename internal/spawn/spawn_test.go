package spawn

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devNullFds(t *testing.T) map[int]*os.File {
	t.Helper()
	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	require.NoError(t, err)
	t.Cleanup(func() { null.Close() })
	return map[int]*os.File{0: null, 1: null, 2: null}
}

func TestSpecValidateRejectsEmptyArgv(t *testing.T) {
	spec := &Spec{Argv: nil, Fds: devNullFds(t)}
	assert.ErrorIs(t, spec.Validate(), ErrEmptyArgv)
}

func TestSpecValidateRejectsMissingStdFds(t *testing.T) {
	spec := &Spec{Argv: []string{"true"}, Fds: map[int]*os.File{0: os.Stdin}}
	assert.Error(t, spec.Validate())
}

func TestSpecValidateAccepts(t *testing.T) {
	spec := &Spec{Argv: []string{"true"}, Fds: devNullFds(t)}
	assert.NoError(t, spec.Validate())
}

func TestBuildFilesClosesUnlistedIntermediateFds(t *testing.T) {
	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	require.NoError(t, err)
	defer null.Close()

	files := buildFiles(map[int]*os.File{0: null, 1: null, 4: null})
	require.Len(t, files, 5)
	assert.Equal(t, null.Fd(), files[0])
	assert.Equal(t, null.Fd(), files[1])
	assert.Equal(t, ^uintptr(0), files[2])
	assert.Equal(t, ^uintptr(0), files[3])
	assert.Equal(t, null.Fd(), files[4])
}

func TestSimpleSpawnsAndReports(t *testing.T) {
	spec := &Spec{Argv: []string{"true"}, Fds: devNullFds(t)}
	proc, err := Simple(spec)
	require.NoError(t, err)
	assert.Greater(t, proc.Pid, 0)

	var ws syscall.WaitStatus
	_, werr := syscall.Wait4(proc.Pid, &ws, 0, nil)
	require.NoError(t, werr)
	assert.True(t, ws.Exited())
}

func TestSimpleSpawnCommandNotFoundStillSucceeds(t *testing.T) {
	spec := &Spec{Argv: []string{"this-command-does-not-exist-xyz"}, Fds: devNullFds(t)}
	proc, err := Simple(spec)
	require.NoError(t, err)
	assert.Greater(t, proc.Pid, 0)
	var ws syscall.WaitStatus
	_, _ = syscall.Wait4(proc.Pid, &ws, 0, nil)
}

func TestLookPathInFindsCommandOnPath(t *testing.T) {
	_, err := LookPathIn("", "true")
	assert.NoError(t, err)
}
