package sessionhelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestEncodeDecodeExited(t *testing.T) {
	line := encodeStatus(123, unix.WaitStatus(7<<8))
	pid, ws, err := decodeStatusLine(line)
	require.NoError(t, err)
	assert.Equal(t, 123, pid)
	assert.True(t, ws.Exited())
	assert.Equal(t, 7, ws.ExitStatus())
}

func TestEncodeDecodeSignaled(t *testing.T) {
	line := encodeStatus(5, unix.WaitStatus(9)) // SIGKILL == 9
	pid, ws, err := decodeStatusLine(line)
	require.NoError(t, err)
	assert.Equal(t, 5, pid)
	assert.True(t, ws.Signaled())
	assert.EqualValues(t, 9, ws.Signal())
}

func TestEncodeDecodeStopped(t *testing.T) {
	line := encodeStatus(8, unix.WaitStatus(0x7f|(19<<8))) // SIGSTOP == 19
	pid, ws, err := decodeStatusLine(line)
	require.NoError(t, err)
	assert.Equal(t, 8, pid)
	assert.True(t, ws.Stopped())
	assert.EqualValues(t, 19, ws.StopSignal())
}

func TestEncodeDecodeContinued(t *testing.T) {
	line := encodeStatus(2, unix.WaitStatus(0xFFFF))
	pid, ws, err := decodeStatusLine(line)
	require.NoError(t, err)
	assert.Equal(t, 2, pid)
	assert.True(t, ws.Continued())
}

func TestDecodeStatusLineMalformed(t *testing.T) {
	_, _, err := decodeStatusLine("not a status line")
	assert.Error(t, err)
}

func TestParsePids(t *testing.T) {
	pids, err := parsePids("100 200 300\n")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 200, 300}, pids)
}
