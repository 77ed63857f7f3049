package sessionhelper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/gsh-project/gsh/internal/spawn"
	"github.com/gsh-project/gsh/internal/wait"
)

// Session is a launched helper: the pids it reported spawning, and the
// open status pipe a caller pumps into a wait.Dispatcher.
type Session struct {
	Pids       []int
	HelperPid  int
	statusRead *os.File
}

// Launch re-execs the running binary as a session helper (SPEC_FULL.md
// §4.6's wire contract) and returns once the helper's first status-pipe
// line (the spawned pids) has been read.
func Launch(specs []*spawn.Spec, tty *os.File) (*Session, error) {
	wireSpecs, extraFiles, err := toWireSpecs(specs)
	if err != nil {
		return nil, err
	}

	specR, specW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	statusR, statusW, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer null.Close()

	files := make([]uintptr, FirstExtraFD+len(extraFiles))
	files[0], files[1], files[2] = null.Fd(), null.Fd(), null.Fd()
	files[SpecFD] = specR.Fd()
	files[StatusFD] = statusW.Fd()
	files[TTYFD] = tty.Fd()
	for i, f := range extraFiles {
		files[FirstExtraFD+i] = f.Fd()
	}

	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}

	env := append(os.Environ(), EnvReexec+"=1")
	attr := &syscall.ProcAttr{
		Env:   env,
		Files: files,
	}
	pid, err := syscall.ForkExec(self, []string{self}, attr)
	if err != nil {
		specR.Close()
		specW.Close()
		statusR.Close()
		statusW.Close()
		return nil, err
	}

	specR.Close()
	statusW.Close()

	payload, err := json.Marshal(wireSpecs)
	if err != nil {
		return nil, err
	}
	if _, err := specW.Write(payload); err != nil {
		return nil, err
	}
	specW.Close()

	reader := bufio.NewReader(statusR)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("sessionhelper: reading pid line: %w", err)
	}
	pids, err := parsePids(line)
	if err != nil {
		return nil, err
	}

	return &Session{Pids: pids, HelperPid: pid, statusRead: statusR}, nil
}

// Pump reads status lines until the helper closes the pipe, forwarding
// each to disp — the client-side half of spec.md §4.6's "parent reads
// pids synchronously, then routes each subsequent (pid, status) to its
// registered callback". Meant to run in its own goroutine.
func (s *Session) Pump(disp *wait.Dispatcher) {
	defer s.statusRead.Close()
	scanner := bufio.NewScanner(s.statusRead)
	for scanner.Scan() {
		pid, ws, err := decodeStatusLine(scanner.Text())
		if err != nil {
			continue
		}
		disp.Forward(pid, ws)
	}
}

func parsePids(line string) ([]int, error) {
	fields := strings.Fields(line)
	pids := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("sessionhelper: malformed pid line: %w", err)
		}
		pids = append(pids, n)
	}
	return pids, nil
}

// toWireSpecs flattens specs' *os.File fd tables into a single ordered
// extra-files list and rewrites each Spec's Fds into helper-local fd
// numbers referencing that list, since a fork/exec boundary can only carry
// file descriptors, not Go *os.File values.
func toWireSpecs(specs []*spawn.Spec) ([]WireSpec, []*os.File, error) {
	var extra []*os.File
	index := make(map[uintptr]int)

	assign := func(f *os.File) int {
		if i, ok := index[f.Fd()]; ok {
			return FirstExtraFD + i
		}
		i := len(extra)
		extra = append(extra, f)
		index[f.Fd()] = i
		return FirstExtraFD + i
	}

	wireSpecs := make([]WireSpec, len(specs))
	for i, spec := range specs {
		ws := WireSpec{Argv: spec.Argv, Environ: spec.Environ, Fds: make(map[int]int, len(spec.Fds))}
		for dest, f := range spec.Fds {
			ws.Fds[dest] = assign(f)
		}
		if spec.CwdHandle != nil {
			path, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", spec.CwdHandle.Fd()))
			if err == nil {
				ws.CwdPath = path
			}
		}
		if spec.Credentials != nil {
			ws.Credentials = &WireCredentials{
				UID:    spec.Credentials.UID,
				GID:    spec.Credentials.GID,
				Groups: spec.Credentials.Groups,
			}
		}
		wireSpecs[i] = ws
	}
	return wireSpecs, extra, nil
}
