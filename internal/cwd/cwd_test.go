package cwd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndGetCwd(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	defer c.Handle().Close()

	got, err := c.GetCwd()
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	resolvedGot, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, resolvedDir, resolvedGot)
}

func TestChdirRelativeAndAbsolute(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	c, err := Open(root)
	require.NoError(t, err)
	defer c.Handle().Close()

	require.NoError(t, c.Chdir("sub"))
	got, err := c.GetCwd()
	require.NoError(t, err)

	resolvedSub, _ := filepath.EvalSymlinks(sub)
	resolvedGot, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, resolvedSub, resolvedGot)

	require.NoError(t, c.Chdir(root))
	got, err = c.GetCwd()
	require.NoError(t, err)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedGot, _ = filepath.EvalSymlinks(got)
	assert.Equal(t, resolvedRoot, resolvedGot)
}

func TestChdirNoSuchDirectory(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	defer c.Handle().Close()

	err = c.Chdir("does-not-exist")
	assert.Error(t, err)
}

func TestRelativeOpRestoresProcessCwd(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)

	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	defer c.Handle().Close()

	var sawInside string
	err = c.RelativeOp(func() error {
		sawInside, err = os.Getwd()
		return err
	})
	require.NoError(t, err)

	resolvedDir, _ := filepath.EvalSymlinks(dir)
	resolvedInside, _ := filepath.EvalSymlinks(sawInside)
	assert.Equal(t, resolvedDir, resolvedInside)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
