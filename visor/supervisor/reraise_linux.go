//go:build linux && (amd64 || arm64)

package supervisor

import (
	"os"
	"os/signal"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// kernel struct sigaction on amd64 and arm64
type sigactiont struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

const sigDFL = 0

// reraise puts back the kernel default disposition of sig and sends it to
// ourselves, so the exit status says "killed by sig". [signal.Reset] is not
// enough: the runtime keeps its own handler installed and turns SIGQUIT into
// a stack dump and exit status 2.
func reraise(sig syscall.Signal) error {
	signal.Reset(sig)

	act := sigactiont{handler: sigDFL}
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION,
		uintptr(sig), uintptr(unsafe.Pointer(&act)), 0, unsafe.Sizeof(act.mask), 0, 0)
	if errno != 0 {
		return errno
	}
	return unix.Kill(os.Getpid(), sig)
}
