package supervisor

import (
	"os"
	"syscall"
	"time"
)

// Hooks replace the process-wide side effects of a supervisor in tests.
type Hooks struct {
	Notify      func(c chan<- os.Signal, sig ...os.Signal)
	StopNotify  func(c chan<- os.Signal)
	Raise       func(sig syscall.Signal) error
	Exit        func(code int)
	ReraiseWait time.Duration
}

func WithHooks(h Hooks) Opt {
	return func(opts supOpts) supOpts {
		if h.Notify != nil {
			opts.notify = h.Notify
		}
		if h.StopNotify != nil {
			opts.stopNotify = h.StopNotify
		}
		if h.Raise != nil {
			opts.raise = h.Raise
		}
		if h.Exit != nil {
			opts.exit = h.Exit
		}
		opts.reraiseWait = h.ReraiseWait
		return opts
	}
}
