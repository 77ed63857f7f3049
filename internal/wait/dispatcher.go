// Package wait implements spec.md §4.5's wait dispatcher: one reaper
// goroutine per registered pid, funneling wait statuses onto a single
// channel so that exactly one goroutine ever invokes a registered
// callback. This is the Go rendering of the original's self-pipe-plus-
// event-loop design — a channel already gives the single-threaded,
// ordered delivery spec.md asks for, without needing a literal byte-pipe
// wakeup.
package wait

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/spawn"
)

// Callback is invoked once per wait status for a pid, always from the
// goroutine that calls Once or ReadPending (see Once). It may be called zero or more
// times with a stopped/continued status, and at most once with a terminal
// (exited/signaled) status, per spec.md §4.5.
type Callback func(*spawn.State)

type event struct {
	pid   int
	state *spawn.State
}

// Dispatcher is a single-threaded wait-status fan-in: add_handler
// registers a pid, a reaper goroutine blocks on waitpid for it, and
// Once/ReadPending deliver statuses to callbacks one at a time.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[int]Callback
	events   chan event
	closeCh  map[int]chan struct{}
}

// New returns a Dispatcher ready to register pids.
func New() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[int]Callback),
		events:   make(chan event, 64),
		closeCh:  make(map[int]chan struct{}),
	}
}

// AddHandler registers cb for pid and starts its reaper goroutine. Calling
// AddHandler twice for the same live pid replaces the callback but does
// not start a second reaper.
func (d *Dispatcher) AddHandler(pid int, cb Callback) {
	d.mu.Lock()
	_, running := d.closeCh[pid]
	d.handlers[pid] = cb
	if !running {
		stop := make(chan struct{})
		d.closeCh[pid] = stop
		go d.reap(pid, stop)
	}
	d.mu.Unlock()
}

// reap blocks on waitpid(pid, WUNTRACED) repeatedly, pushing every status
// onto the shared events channel, until a terminal status is observed or
// the reaper is told to stop. It never touches shell state directly —
// spec.md §5's "reaper threads never touch shell state" invariant.
func (d *Dispatcher) reap(pid int, stop chan struct{}) {
	for {
		var status unix.WaitStatus
		var rusage unix.Rusage
		_, err := unix.Wait4(pid, &status, unix.WUNTRACED, &rusage)
		if err == unix.EINTR {
			continue
		}
		if err == unix.ECHILD {
			// Reaper ECHILD terminates the reaper quietly (spec.md §7).
			return
		}
		if err != nil {
			return
		}

		st := spawn.NewState(pid, status)
		select {
		case d.events <- event{pid: pid, state: st}:
		case <-stop:
			return
		}

		if st.Terminal() {
			d.mu.Lock()
			delete(d.closeCh, pid)
			d.mu.Unlock()
			return
		}
	}
}

// Once runs one iteration of the dispatcher's delivery loop. If may_block
// is true and no event is pending, it waits for exactly one; otherwise it
// returns immediately when the queue is empty. It is the single place
// callbacks are invoked, which is what makes delivery single-threaded.
func (d *Dispatcher) Once(mayBlock bool) bool {
	if mayBlock {
		ev, ok := <-d.events
		if !ok {
			return false
		}
		d.deliver(ev)
		return true
	}
	select {
	case ev := <-d.events:
		d.deliver(ev)
		return true
	default:
		return false
	}
}

// ReadPending drains every currently-queued event without blocking,
// delivering each to its callback in arrival order.
func (d *Dispatcher) ReadPending() {
	for d.Once(false) {
	}
}

func (d *Dispatcher) deliver(ev event) {
	d.mu.Lock()
	cb, ok := d.handlers[ev.pid]
	if ok && ev.state.Terminal() {
		delete(d.handlers, ev.pid)
	}
	d.mu.Unlock()
	if ok && cb != nil {
		cb(ev.state)
	}
}

// Forward injects an externally-observed status (from the session
// helper's pipe, §4.6) as if a reaper goroutine had produced it. The
// Session spawner variant has no local reaper — the helper subprocess is
// the one actually calling waitpid — so it calls Forward instead of
// relying on AddHandler's own reaper.
func (d *Dispatcher) Forward(pid int, status unix.WaitStatus) {
	st := spawn.NewState(pid, status)
	d.events <- event{pid: pid, state: st}
}

// Track registers pid with cb without starting a reaper goroutine, for use
// alongside Forward when status delivery comes from elsewhere (the
// session helper).
func (d *Dispatcher) Track(pid int, cb Callback) {
	d.mu.Lock()
	d.handlers[pid] = cb
	d.mu.Unlock()
}
