package job

import (
	"syscall"

	"github.com/gsh-project/gsh/internal/spawn"
)

const sigcont = syscall.SIGCONT

func signalGroup(pgid int, sig syscall.Signal) error {
	return spawn.SignalGroup(pgid, sig)
}
