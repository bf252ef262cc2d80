//go:build !(linux && (amd64 || arm64))

package supervisor

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// reraise hands sig back to the runtime's default handling and sends it to
// ourselves. The runtime exits with status 2 on SIGQUIT here.
func reraise(sig syscall.Signal) error {
	signal.Reset(sig)
	return unix.Kill(os.Getpid(), sig)
}
