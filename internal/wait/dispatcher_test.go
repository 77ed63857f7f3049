package wait

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/spawn"
)

// fakeExitedStatus builds a WaitStatus representing a normal exit(0),
// matching the raw kernel encoding (low 7 bits 0 means "exited").
func fakeExitedStatus() unix.WaitStatus {
	return unix.WaitStatus(0)
}

func TestDispatcherDeliversTerminalStatusOnce(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())

	d := New()
	received := make(chan *spawn.State, 4)
	d.AddHandler(cmd.Process.Pid, func(st *spawn.State) {
		received <- st
	})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-received:
			assert.True(t, st.Terminal())
			return
		case <-deadline:
			t.Fatal("timed out waiting for terminal status")
		default:
			d.Once(true)
		}
	}
}

func TestDispatcherReadPendingDrainsWithoutBlocking(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())

	d := New()
	done := make(chan struct{})
	d.AddHandler(cmd.Process.Pid, func(st *spawn.State) {
		if st.Terminal() {
			close(done)
		}
	})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("timed out")
		default:
			d.ReadPending()
		}
	}
}

func TestDispatcherForward(t *testing.T) {
	d := New()
	got := make(chan *spawn.State, 1)
	d.Track(99999, func(st *spawn.State) { got <- st })

	ws := fakeExitedStatus()
	d.Forward(99999, ws)
	d.Once(true)

	select {
	case st := <-got:
		assert.Equal(t, 99999, st.Pid())
		assert.True(t, st.Exited())
	default:
		t.Fatal("expected forwarded status to be delivered")
	}
}
