// Ports are the OS processes owned by a task. A port wraps an [os/exec.Cmd]
// started in its own process group, so every signal it sends reaches the
// program and anything the program forked. When the program exits, whatever
// is left in its group is killed before the exit is reported: a port never
// leaves orphans behind.
package port

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/exitreason"
)

type Port struct {
	name   string
	cmd    *exec.Cmd
	opts   Opts
	stdout *os.File
	done   chan struct{}

	mx        sync.Mutex
	err       error
	closing   bool
	killTimer *time.Timer
}

// Open starts cmd and returns the running port. A program that cannot be
// started returns an [exitreason.LaunchFailed] error.
func Open(cmd Cmd, opts ...Opt) (*Port, error) {
	optS := buildOpts(opts)
	p := &Port{
		name: optS.name,
		opts: optS,
		done: make(chan struct{}),
	}
	if p.name == "" {
		p.name = filepath.Base(cmd.cmd)
	}

	p.cmd = exec.Command(cmd.cmd, cmd.args...)
	p.cmd.SysProcAttr = sysProcAttr()
	p.cmd.Dir = optS.dir
	if len(optS.env) > 0 {
		p.cmd.Env = append(os.Environ(), optS.env...)
	}
	p.cmd.Stderr = os.Stderr
	if optS.stderr != nil {
		p.cmd.Stderr = optS.stderr
	}

	var pipeW *os.File
	switch {
	case optS.pipeStdOut:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, exitreason.LaunchFailed(fmt.Errorf("%s: stdout pipe: %w", p.name, err))
		}
		p.stdout, pipeW = r, w
		p.cmd.Stdout = w
	case optS.stdout != nil:
		p.cmd.Stdout = optS.stdout
	default:
		p.cmd.Stdout = os.Stdout
	}

	err := p.cmd.Start()
	if pipeW != nil {
		// the child holds its own copy now
		pipeW.Close()
	}
	if err != nil {
		if p.stdout != nil {
			p.stdout.Close()
		}
		return nil, exitreason.LaunchFailed(fmt.Errorf("%s: %w", cmd, err))
	}

	visor.DebugPrintf("port %s started %q as pid %d", p.name, cmd, p.cmd.Process.Pid)

	go p.wait()

	return p, nil
}

func (p *Port) wait() {
	pid := p.cmd.Process.Pid

	// when the program is left a zombie its pid (and process group id) cannot
	// be reused, so the sweep is safe before reaping.
	zombie := waitNoReap(pid)
	if zombie {
		sweepGroup(pid)
	}

	err := p.cmd.Wait()
	if !zombie {
		sweepGroup(pid)
	}

	p.mx.Lock()
	p.err = classify(err)
	if p.killTimer != nil {
		p.killTimer.Stop()
	}
	p.mx.Unlock()

	visor.DebugPrintf("port %s (pid %d) exited: %v", p.name, pid, p.err)
	close(p.done)
}

func classify(err error) error {
	if err == nil {
		return exitreason.Normal
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return exitreason.Killed(ws.Signal())
		}
	}
	return exitreason.Exception(err)
}

func (p *Port) Name() string {
	return p.name
}

// Pid of the program, which is also the id of its process group.
func (p *Port) Pid() int {
	return p.cmd.Process.Pid
}

// Stdout is the read end of the stdout pipe when the port was opened with
// [PipeStdOut], nil otherwise. The reader is responsible for closing it.
func (p *Port) Stdout() io.ReadCloser {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Done is closed once the program has exited and been reaped.
func (p *Port) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit reason of the program. Only meaningful after [Port.Done]
// is closed.
func (p *Port) Err() error {
	p.mx.Lock()
	defer p.mx.Unlock()

	return p.err
}

// Stop is [Port.Close]; it lets a port act as a task member.
func (p *Port) Stop() error {
	return p.Close()
}

// Close sends the exit signal to the process group. If a grace period is set
// and the program is still running once it lapses, the group gets SIGKILL.
// Close does not wait; use [Port.Done]. Calling it again resends the signal.
func (p *Port) Close() error {
	p.mx.Lock()
	if !p.closing && p.opts.grace > 0 {
		p.killTimer = time.AfterFunc(p.opts.grace, func() {
			visor.Log().Warn("grace period lapsed, killing process group",
				"port", p.name, "pid", p.Pid(), "grace", p.opts.grace)
			p.Kill() //nolint:errcheck
		})
	}
	p.closing = true
	p.mx.Unlock()

	return p.Signal(p.opts.exitSignal)
}

// Kill sends SIGKILL to the process group.
func (p *Port) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Signal sends sig to the whole process group of the program.
func (p *Port) Signal(sig syscall.Signal) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	err := unix.Kill(-p.Pid(), sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("port %s: signal %v: %w", p.name, sig, err)
	}
	return nil
}

// sweepGroup kills whatever is still in the process group led by pid.
func sweepGroup(pid int) {
	err := unix.Kill(-pid, syscall.SIGKILL)
	if err == nil {
		visor.DebugPrintf("killed leftover processes in group %d", pid)
	}
}
