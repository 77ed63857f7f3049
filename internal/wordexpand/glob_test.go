package wordexpand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsGlob(t *testing.T) {
	assert.True(t, NeedsGlob("*.go"))
	assert.True(t, NeedsGlob("file?.txt"))
	assert.False(t, NeedsGlob("[abc]"))
	assert.False(t, NeedsGlob("plain"))
}

func TestGlobMatchesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.txt", "ignore.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	handle, err := os.Open(dir)
	require.NoError(t, err)
	defer handle.Close()

	got, err := Glob("*.txt", handle)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, got)
}

func TestGlobNoMatchReturnsLiteral(t *testing.T) {
	dir := t.TempDir()
	handle, err := os.Open(dir)
	require.NoError(t, err)
	defer handle.Close()

	got, err := Glob("*.nope", handle)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.nope"}, got)
}

func TestGlobWithoutTriggerIsLiteral(t *testing.T) {
	got, err := Glob("literal[abc]", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"literal[abc]"}, got)
}
