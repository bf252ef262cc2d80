package supervisor

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uberbrodt/procvisor/chronos"
)

type supOpts struct {
	observer     Observer
	interactive  InteractiveMode
	waitLogEvery time.Duration
	killAfter    time.Duration

	notify      func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify  func(c chan<- os.Signal)
	raise       func(sig syscall.Signal) error
	exit        func(code int)
	reraiseWait time.Duration
}

type Opt func(opts supOpts) supOpts

// WithObserver registers an [Observer] for task starts and the shutdown cause.
func WithObserver(o Observer) Opt {
	return func(opts supOpts) supOpts {
		opts.observer = o
		return opts
	}
}

// Interactive sets how SIGINT is treated. Defaults to [InteractiveAuto].
func Interactive(mode InteractiveMode) Opt {
	return func(opts supOpts) supOpts {
		opts.interactive = mode
		return opts
	}
}

// WaitLogInterval is how often the names of tasks still shutting down are
// logged.
func WaitLogInterval(d time.Duration) Opt {
	return func(opts supOpts) supOpts {
		opts.waitLogEvery = d
		return opts
	}
}

// KillAfter kills every task still running this long after terminate was
// broadcast. Zero (the default) waits forever.
func KillAfter(d time.Duration) Opt {
	return func(opts supOpts) supOpts {
		opts.killAfter = d
		return opts
	}
}

func defaultOpts() supOpts {
	return supOpts{
		observer:     nopObserver{},
		interactive:  InteractiveAuto,
		waitLogEvery: chronos.Dur("5s"),
		notify:       signal.Notify,
		stopNotify:   signal.Stop,
		raise:        reraise,
		exit:         os.Exit,
		reraiseWait:  chronos.Dur("1s"),
	}
}

func buildOpts(opts []Opt) supOpts {
	o := defaultOpts()
	for _, opt := range opts {
		o = opt(o)
	}
	return o
}
