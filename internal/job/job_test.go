package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/spawn"
)

func exitedStatus() *spawn.State  { return spawn.NewState(1, unix.WaitStatus(0)) }
func stoppedStatus() *spawn.State { return spawn.NewState(1, unix.WaitStatus(0x137f)) }

func TestProcApplyFiresSubscribersOnlyOnChange(t *testing.T) {
	p := NewProc(123)
	var transitions []State
	p.Subscribe(func(s State) { transitions = append(transitions, s) })

	p.Apply(stoppedStatus())
	p.Apply(stoppedStatus()) // no change: must not fire again
	p.Apply(exitedStatus())

	assert.Equal(t, []State{Stopped, Finished}, transitions)
}

func TestJobAggregateAllFinished(t *testing.T) {
	a, b := NewProc(1), NewProc(2)
	j := New(1, []*Proc{a, b}, 1, "a | b", nil, nil)

	a.Apply(exitedStatus())
	assert.Equal(t, Running, j.State())
	b.Apply(exitedStatus())
	assert.Equal(t, Finished, j.State())
}

func TestJobAggregateMixedFinishedAndRunningIsRunning(t *testing.T) {
	a, b := NewProc(1), NewProc(2)
	j := New(1, []*Proc{a, b}, 1, "a | b", nil, nil)

	a.Apply(exitedStatus())
	assert.Equal(t, Running, j.State())
}

func TestJobAggregateMixedFinishedAndStoppedIsStopped(t *testing.T) {
	a, b := NewProc(1), NewProc(2)
	j := New(1, []*Proc{a, b}, 1, "a | b", nil, nil)

	a.Apply(exitedStatus())
	b.Apply(stoppedStatus())
	assert.Equal(t, Stopped, j.State())
}

func TestJobOnStateChangeFiresOnAggregateTransition(t *testing.T) {
	a := NewProc(1)
	j := New(1, []*Proc{a}, 1, "cmd", nil, nil)

	var seen []State
	j.OnStateChange(func(s State) { seen = append(seen, s) })

	a.Apply(stoppedStatus())
	a.Apply(exitedStatus())

	assert.Equal(t, []State{Stopped, Finished}, seen)
}

func TestTableMonotonicIDsAcrossRemoval(t *testing.T) {
	tbl := NewTable()
	j1 := New(tbl.NextID(), nil, 1, "one", nil, nil)
	tbl.Add(j1)
	tbl.Remove(j1.ID)

	j2 := New(tbl.NextID(), nil, 2, "two", nil, nil)
	tbl.Add(j2)

	assert.Greater(t, j2.ID, j1.ID)
}

func TestTableAllOrderedByID(t *testing.T) {
	tbl := NewTable()
	ids := []int{3, 1, 2}
	for _, id := range ids {
		j := New(id, nil, id, "cmd", nil, nil)
		tbl.Add(j)
	}
	var got []int
	for _, j := range tbl.All() {
		got = append(got, j.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestTableMostRecent(t *testing.T) {
	tbl := NewTable()
	tbl.Add(New(1, nil, 1, "a", nil, nil))
	tbl.Add(New(5, nil, 5, "b", nil, nil))
	tbl.Add(New(3, nil, 3, "c", nil, nil))

	j, ok := tbl.MostRecent()
	assert.True(t, ok)
	assert.Equal(t, 5, j.ID)
}
