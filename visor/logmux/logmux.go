// Package logmux follows a set of growing log files as one merged stream and
// forwards it to the supervisor's error stream, unwrapping the lines a pool
// manager wraps around its workers' output.
package logmux

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/uberbrodt/procvisor/chronos"
	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/port"
	"github.com/uberbrodt/procvisor/visor/task"
)

// Mode selects how files are followed.
type Mode string

const (
	// ModeTail runs `tail -F` as a subprocess and rewrites its output.
	ModeTail Mode = "tail"
	// ModeNative follows the files in process with fsnotify.
	ModeNative Mode = "native"
)

const (
	DefaultPollInterval = 1 * time.Second
	DefaultMaxLineBytes = 64 * 1024
	DefaultTailProgram  = "tail"
)

type Config struct {
	Paths []string
	Mode  Mode
	// Out receives the forwarded lines. Defaults to os.Stderr.
	Out io.Writer
	// TailProgram is the tail binary used by ModeTail.
	TailProgram string
	// Grace is how long the tail subprocess gets to exit after TERM before it
	// is killed. Zero waits forever.
	Grace time.Duration
	// PollInterval is the safety net of ModeNative for missed events.
	PollInterval time.Duration
	MaxLineBytes int
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeTail
	}
	if c.Out == nil {
		c.Out = os.Stderr
	}
	if c.TailProgram == "" {
		c.TailProgram = DefaultTailProgram
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	return c
}

// New returns the log multiplexer task. Nothing runs until the task is
// started; Start returns once the files exist and the followers are up.
func New(conf Config, opts ...task.StartOpt) *task.Task {
	conf = conf.withDefaults()
	opts = append([]task.StartOpt{task.LaunchOnStart()}, opts...)
	return task.New("logmux", task.LaunchFunc(func() ([]task.Member, error) {
		return launch(conf)
	}), opts...)
}

func launch(conf Config) ([]task.Member, error) {
	visor.Log().Info("Starting log redirection...", "paths", conf.Paths, "mode", conf.Mode)
	start := time.Now()

	if len(conf.Paths) == 0 {
		return nil, fmt.Errorf("logmux: no files to follow")
	}
	if err := EnsureFiles(conf.Paths); err != nil {
		return nil, err
	}

	var members []task.Member
	var err error
	switch conf.Mode {
	case ModeTail:
		members, err = launchTail(conf)
	case ModeNative:
		members, err = launchNative(conf)
	default:
		err = fmt.Errorf("logmux: unknown follow mode %q", conf.Mode)
	}
	if err == nil {
		visor.DebugPrintf("logmux: %d members up in %dms", len(members), chronos.Since(start))
	}
	return members, err
}

// launchTail is the pipeline `tail -n 0 -q -F <paths> | rewrite`.
func launchTail(conf Config) ([]task.Member, error) {
	args := append([]string{"-n", "0", "-q", "-F"}, conf.Paths...)
	tail, err := port.Open(port.NewCmd(conf.TailProgram, args...),
		port.PipeStdOut(),
		port.SetName("tail"),
		port.SetExitSignal(syscall.SIGTERM),
		port.SetGracePeriod(conf.Grace),
	)
	if err != nil {
		return nil, err
	}
	return []task.Member{tail, startPump(tail.Stdout(), conf.Out, conf.MaxLineBytes)}, nil
}

func launchNative(conf Config) ([]task.Member, error) {
	pr, pw := io.Pipe()
	fl, err := startFollower(conf.Paths, pw, conf.PollInterval, conf.MaxLineBytes)
	if err != nil {
		pr.Close()
		return nil, err
	}
	return []task.Member{fl, startPump(pr, conf.Out, conf.MaxLineBytes)}, nil
}
