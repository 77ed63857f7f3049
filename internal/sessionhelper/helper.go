package sessionhelper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/gsh-project/gsh/internal/procgroup"
	"github.com/gsh-project/gsh/internal/spawn"
)

// IsHelperInvocation reports whether this process was re-exec'd as a
// session helper, per EnvReexec.
func IsHelperInvocation() bool {
	return os.Getenv(EnvReexec) != ""
}

// Serve runs spec.md §4.6's seven-step session helper contract. It never
// returns under normal operation — step 7 ends with os.Exit once waitpid
// reports ECHILD.
func Serve() {
	// Step 1: ignore SIGINT/SIGTTIN/SIGTTOU — a session leader must not be
	// stopped or interrupted by the terminal the way an ordinary job would.
	signal.Ignore(syscall.SIGINT, syscall.SIGTTIN, syscall.SIGTTOU)

	// Step 2: become session leader.
	if _, err := unix.Setsid(); err != nil {
		fatalf("setsid: %v", err)
	}

	ttyFile := os.NewFile(uintptr(TTYFD), "tty")

	// Step 3: attach the tty as this session's controlling terminal.
	if err := unix.IoctlSetInt(TTYFD, unix.TIOCSCTTY, 0); err != nil {
		fatalf("TIOCSCTTY: %v", err)
	}

	specFile := os.NewFile(uintptr(SpecFD), "specs")
	payload, err := io.ReadAll(specFile)
	if err != nil {
		fatalf("reading specs: %v", err)
	}
	specFile.Close()

	var wireSpecs []WireSpec
	if err := json.Unmarshal(payload, &wireSpecs); err != nil {
		fatalf("decoding specs: %v", err)
	}

	// Step 4: spawn each spec under a foreground process-group policy on
	// this session's new tty.
	policy := procgroup.New(true, ttyFile)
	pids := make([]int, 0, len(wireSpecs))
	for _, wireSpec := range wireSpecs {
		spec, err := fromWireSpec(wireSpec, policy)
		if err != nil {
			fatalf("building spec: %v", err)
		}
		proc, err := spawn.ProcessGroup(spec)
		if err != nil {
			fatalf("spawning: %v", err)
		}
		pids = append(pids, proc.Pid)
	}

	// Step 5: close every descriptor other than the status pipe.
	closeAllExcept(StatusFD)

	statusFile := os.NewFile(uintptr(StatusFD), "status")

	// Step 6: report the spawned pids as the first message.
	fmt.Fprintln(statusFile, joinInts(pids))

	// Step 7: relay every child's wait status until none remain.
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err == unix.ECHILD {
			break
		}
		if err != nil {
			break
		}
		fmt.Fprintln(statusFile, encodeStatus(pid, ws))
	}
	os.Exit(0)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gsh session-helper: "+format+"\n", args...)
	os.Exit(1)
}

func fromWireSpec(ws WireSpec, policy *procgroup.Policy) (*spawn.Spec, error) {
	spec := &spawn.Spec{
		Argv:    ws.Argv,
		Environ: ws.Environ,
		Fds:     make(map[int]*os.File, len(ws.Fds)),
		Policy:  policy,
	}
	for dest, fd := range ws.Fds {
		spec.Fds[dest] = os.NewFile(uintptr(fd), "")
	}
	if ws.CwdPath != "" {
		f, err := os.OpenFile(ws.CwdPath, os.O_RDONLY|unix.O_DIRECTORY, 0)
		if err == nil {
			spec.CwdHandle = f
		}
	}
	if ws.Credentials != nil {
		spec.Credentials = &spawn.Credentials{
			UID:    ws.Credentials.UID,
			GID:    ws.Credentials.GID,
			Groups: ws.Credentials.Groups,
		}
	}
	return spec, nil
}

func closeAllExcept(keep int) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return
	}
	for _, e := range entries {
		n, err := strconv.Atoi(filepath.Base(e.Name()))
		if err != nil || n == keep {
			continue
		}
		unix.Close(n)
	}
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
