package internal

import (
	"os"
	"syscall"
)

// ProcessProbe answers whether a pid belongs to a live process. The lock
// manager uses it to tell a held lock from a stale one left by a crash.
type ProcessProbe interface {
	Alive(pid int) bool
}

// SignalProbe probes liveness with a null signal, the portable unix idiom.
type SignalProbe struct{}

func (SignalProbe) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
