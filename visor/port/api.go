package port

import (
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"
)

// Cmd is the program a port runs.
type Cmd struct {
	cmd  string
	args []string
}

func NewCmd(cmd string, args ...string) Cmd {
	return Cmd{cmd, args}
}

func (c Cmd) String() string {
	if len(c.args) == 0 {
		return c.cmd
	}
	return fmt.Sprintf("%s %s", c.cmd, strings.Join(c.args, " "))
}

// Redirect stdout to an [*os.File] or buffer. Defaults to the supervisor's
// own stdout.
func SetStdOut(stdout io.Writer) Opt {
	return func(opts Opts) Opts {
		opts.stdout = stdout
		return opts
	}
}

// PipeStdOut connects the program's stdout to a pipe readable with
// [Port.Stdout]. The reader sees EOF once every process holding the write end
// has exited, so it can be drained after [Port.Done] closes.
func PipeStdOut() Opt {
	return func(opts Opts) Opts {
		opts.pipeStdOut = true
		return opts
	}
}

// Redirect the program's error stream. Works the same way as [SetStdOut].
func SetStdErr(stderr io.Writer) Opt {
	return func(opts Opts) Opts {
		opts.stderr = stderr
		return opts
	}
}

// This signal is sent to the process group by [Port.Close]. Defaults to
// SIGTERM.
func SetExitSignal(sig syscall.Signal) Opt {
	return func(opts Opts) Opts {
		opts.exitSignal = sig
		return opts
	}
}

// After [Port.Close], wait this long for the program to exit before sending
// SIGKILL to its process group. Zero waits forever.
func SetGracePeriod(d time.Duration) Opt {
	return func(opts Opts) Opts {
		opts.grace = d
		return opts
	}
}

func SetDir(dir string) Opt {
	return func(opts Opts) Opts {
		opts.dir = dir
		return opts
	}
}

// Extra KEY=VALUE pairs appended to the supervisor's environment.
func SetEnv(env ...string) Opt {
	return func(opts Opts) Opts {
		opts.env = append(opts.env, env...)
		return opts
	}
}

// Name used in logs. Defaults to the base name of the program.
func SetName(name string) Opt {
	return func(opts Opts) Opts {
		opts.name = name
		return opts
	}
}

type Opts struct {
	name       string
	stdout     io.Writer
	pipeStdOut bool
	stderr     io.Writer
	exitSignal syscall.Signal
	grace      time.Duration
	dir        string
	env        []string
}

type Opt func(opts Opts) Opts

func buildOpts(opts []Opt) Opts {
	defaults := Opts{
		exitSignal: syscall.SIGTERM,
	}

	for _, opt := range opts {
		defaults = opt(defaults)
	}

	return defaults
}
