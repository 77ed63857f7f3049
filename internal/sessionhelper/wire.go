// Package sessionhelper implements spec.md §4.6's Session spawner variant:
// a re-exec'd auxiliary process that becomes its own session leader,
// attaches a controlling tty, and spawns a job's processes under it, since
// a session leader itself cannot be stopped by Ctrl-Z.
package sessionhelper

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// EnvReexec is the environment variable the shell sets (alongside the
// fixed fd contract below) to tell a re-exec'd process "you are the
// session helper, not a fresh shell" — the same shape as
// joshuarubin-teleport-job-worker's commands.Child() reexec convention,
// adapted from an argv flag to an env var since this module's CLI also
// wants a plain "--command" flag free for interactive use.
const EnvReexec = "GSH_SESSION_HELPER"

// Fixed fd contract a helper process is spawned with (spec.md §4.6's
// "three inputs: proc specs, pipe write-end fd, tty fd" plus however many
// extra fds the specs themselves reference).
const (
	SpecFD       = 3 // read end: JSON-encoded []WireSpec, closed (EOF) once fully written
	StatusFD     = 4 // write end: pid line, then one "<pid> <tag> <value>" line per status
	TTYFD        = 5 // the tty to attach as the new session's controlling terminal
	FirstExtraFD = 6 // specs' own referenced fds start here
)

// WireCredentials mirrors spawn.Credentials in a JSON-serializable form.
type WireCredentials struct {
	UID    uint32   `json:"uid"`
	GID    uint32   `json:"gid"`
	Groups []uint32 `json:"groups,omitempty"`
}

// WireSpec mirrors spawn.Spec in a JSON-serializable form: Fds maps dest
// fd to the helper-local fd number (>= FirstExtraFD) the launcher arranged
// to carry the corresponding *os.File across the re-exec, since an open
// file descriptor — not its Go value — is what actually survives exec.
type WireSpec struct {
	Argv        []string        `json:"argv"`
	Fds         map[int]int     `json:"fds"`
	CwdPath     string          `json:"cwd_path,omitempty"`
	Environ     []string        `json:"environ,omitempty"`
	Credentials *WireCredentials `json:"credentials,omitempty"`
}

// statusTag is one of the four wait-status shapes the wire format names.
type statusTag string

const (
	tagExited    statusTag = "exited"
	tagSignaled  statusTag = "signaled"
	tagStopped   statusTag = "stopped"
	tagContinued statusTag = "continued"
)

// encodeStatus renders one "<pid> <tag> <value>" status line, per
// SPEC_FULL.md §4.6's wire format.
func encodeStatus(pid int, ws unix.WaitStatus) string {
	switch {
	case ws.Exited():
		return fmt.Sprintf("%d %s %d", pid, tagExited, ws.ExitStatus())
	case ws.Continued():
		return fmt.Sprintf("%d %s 0", pid, tagContinued)
	case ws.Stopped():
		return fmt.Sprintf("%d %s %d", pid, tagStopped, int(ws.StopSignal()))
	case ws.Signaled():
		return fmt.Sprintf("%d %s %d", pid, tagSignaled, int(ws.Signal()))
	default:
		return fmt.Sprintf("%d %s 0", pid, tagExited)
	}
}

// decodeStatusLine parses one status line back into a pid and a
// unix.WaitStatus carrying the same Exited()/Signaled()/Stopped()/
// Continued() answer the helper observed, reconstructed from the kernel's
// own raw encoding (low 7 bits classify the status; the next byte carries
// the code/signal) since unix.WaitStatus is a bit-packed integer, not a
// struct, and has no public constructor.
func decodeStatusLine(line string) (pid int, ws unix.WaitStatus, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("sessionhelper: malformed status line %q", line)
	}
	pid, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	value, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, err
	}

	switch statusTag(fields[1]) {
	case tagExited:
		ws = unix.WaitStatus(uint32(value&0xFF) << 8)
	case tagSignaled:
		ws = unix.WaitStatus(uint32(value) & 0x7F)
	case tagStopped:
		ws = unix.WaitStatus(0x7F | (uint32(value&0xFF) << 8))
	case tagContinued:
		ws = unix.WaitStatus(0xFFFF)
	default:
		return 0, 0, fmt.Errorf("sessionhelper: unknown status tag %q", fields[1])
	}
	return pid, ws, nil
}
