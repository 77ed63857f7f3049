package complete

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsh-project/gsh/internal/cwd"
)

func newCompleter(t *testing.T) (*Completer, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alongside.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "albums"), 0o755))

	c, err := cwd.Open(dir)
	require.NoError(t, err)
	return New(c), dir
}

func TestFilenameCandidatesPrefixMatch(t *testing.T) {
	comp, _ := newCompleter(t)
	got := comp.filenameCandidates("al")
	assert.ElementsMatch(t, []string{"albums/", "alongside.txt", "alpha.txt"}, got)
}

func TestFilenameCandidatesAppendsSlashToDirs(t *testing.T) {
	comp, _ := newCompleter(t)
	got := comp.filenameCandidates("albu")
	assert.Equal(t, []string{"albums/"}, got)
}

func TestFilenameCandidatesPreservesDirectoryPrefix(t *testing.T) {
	comp, dir := newCompleter(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "albums", "cover.jpg"), []byte("x"), 0o644))

	got := comp.filenameCandidates("albums//cov")
	assert.Equal(t, []string{"albums//cover.jpg"}, got)
}

func TestFilenameCandidatesTildeRoundTrip(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "notes.txt"), []byte("x"), 0o644))
	t.Setenv("HOME", home)

	c, err := cwd.Open(t.TempDir())
	require.NoError(t, err)
	comp := New(c)

	got := comp.filenameCandidates("~/not")
	assert.Equal(t, []string{"~/notes.txt"}, got)
}

func TestCompleteMergesCommandsWhenContextIsBlank(t *testing.T) {
	binDir := t.TempDir()
	exe := filepath.Join(binDir, "albatross")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", binDir)

	comp, _ := newCompleter(t)
	got := comp.Complete("", "al")
	assert.Contains(t, got, "albatross")
	assert.Contains(t, got, "albums/")
}

func TestCompleteSkipsCommandsWhenContextHasWords(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "albatross"), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", binDir)

	comp, _ := newCompleter(t)
	got := comp.Complete("cat ", "al")
	assert.NotContains(t, got, "albatross")
	assert.Contains(t, got, "albums/")
}
