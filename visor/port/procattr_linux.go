//go:build linux

package port

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/uberbrodt/procvisor/visor"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

// waitNoReap blocks until pid exits but leaves it a zombie. It returns false
// if the wait failed and the process may already be reaped.
func waitNoReap(pid int) bool {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		switch err {
		case nil:
			return true
		case unix.EINTR:
			continue
		default:
			visor.DebugPrintf("waitid(%d) failed: %v", pid, err)
			return false
		}
	}
}
