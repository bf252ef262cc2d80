// Package appserver runs the application server as a single foreground
// subprocess.
package appserver

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"syscall"
	"time"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/port"
	"github.com/uberbrodt/procvisor/visor/task"
)

// DefaultCommand keeps php-fpm in the foreground so it stays our child.
var DefaultCommand = []string{"php-fpm", "--nodaemonize"}

type Config struct {
	// Command is the program and its arguments. Defaults to [DefaultCommand].
	Command []string
	// ExitSignal is sent to the server's process group on terminate.
	// Defaults to SIGTERM.
	ExitSignal syscall.Signal
	// Grace is how long the server gets to exit after ExitSignal before it is
	// killed. Zero waits forever.
	Grace time.Duration
	// Stdout and Stderr default to the supervisor's own streams.
	Stdout io.Writer
	Stderr io.Writer
	// Dir is the working directory; empty inherits ours.
	Dir string
	// Env holds KEY=VALUE pairs added to the inherited environment.
	Env []string
}

// Name is the server's program name, used in diagnostics.
func (c Config) Name() string {
	if len(c.Command) == 0 {
		return filepath.Base(DefaultCommand[0])
	}
	return filepath.Base(c.Command[0])
}

// New returns the application server task.
func New(conf Config, opts ...task.StartOpt) *task.Task {
	if len(conf.Command) == 0 {
		conf.Command = DefaultCommand
	}
	if conf.ExitSignal == 0 {
		conf.ExitSignal = syscall.SIGTERM
	}
	return task.New(conf.Name(), task.LaunchFunc(func() ([]task.Member, error) {
		return launch(conf)
	}), opts...)
}

func launch(conf Config) ([]task.Member, error) {
	if conf.Command[0] == "" {
		return nil, errors.New("appserver: empty server command")
	}
	visor.Log().Info(fmt.Sprintf("Starting %s...", conf.Name()), "command", conf.Command)

	opts := []port.Opt{
		port.SetName(conf.Name()),
		port.SetExitSignal(conf.ExitSignal),
		port.SetGracePeriod(conf.Grace),
	}
	if conf.Stdout != nil {
		opts = append(opts, port.SetStdOut(conf.Stdout))
	}
	if conf.Stderr != nil {
		opts = append(opts, port.SetStdErr(conf.Stderr))
	}
	if conf.Dir != "" {
		opts = append(opts, port.SetDir(conf.Dir))
	}
	if len(conf.Env) > 0 {
		opts = append(opts, port.SetEnv(conf.Env...))
	}

	p, err := port.Open(port.NewCmd(conf.Command[0], conf.Command[1:]...), opts...)
	if err != nil {
		return nil, err
	}
	visor.DebugPrintf("appserver: %s running as pid %d", conf.Name(), p.Pid())
	return []task.Member{p}, nil
}
