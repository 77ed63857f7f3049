package spawn

import "os"

// buildFiles turns a sparse dest→source fd map into the dense
// []uintptr that syscall.ForkExec (ProcAttr.Files) expects: index i of the
// result becomes fd i in the child. A destination with no entry in fds, at
// an index below the highest requested destination, is filled with
// ^uintptr(0) — the Go runtime's fork/exec child code treats that as "close
// this fd" (see syscall/exec_linux.go's fd[i] == -1 case), which is exactly
// spec.md §4.3 step 4's close sweep, achieved for free by the same
// mechanism that performs steps 1-3's swap-safe dup2 dance.
//
// Callers need not clear close-on-exec on the files in fds: files opened
// through Go's os package carry O_CLOEXEC by default, and the fork/exec
// child clears it only for
// the indices it's told to keep (see exec_linux.go's dup2(i,i) special
// case), which is how descriptors outside {0,1,2,...,maxDest} end up
// closed in the child without an explicit SC_OPEN_MAX sweep.
func buildFiles(fds map[int]*os.File) []uintptr {
	maxDest := 2 // fds 0,1,2 always survive per spec.md §3's invariant
	for dest := range fds {
		if dest > maxDest {
			maxDest = dest
		}
	}

	files := make([]uintptr, maxDest+1)
	for i := range files {
		files[i] = ^uintptr(0)
	}
	for dest, src := range fds {
		files[dest] = src.Fd()
	}
	return files
}

// requiredFDs reports whether fds satisfies spec.md §3's invariant that 0,
// 1, and 2 are always present in a process spec's fd table.
func requiredFDs(fds map[int]*os.File) bool {
	for _, want := range []int{0, 1, 2} {
		if _, ok := fds[want]; !ok {
			return false
		}
	}
	return true
}
