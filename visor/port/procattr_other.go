//go:build !linux

package port

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// Only Linux can wait without reaping; elsewhere the group is swept after
// [os/exec.Cmd.Wait] returns.
func waitNoReap(pid int) bool {
	return false
}
