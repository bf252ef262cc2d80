package task

import (
	"time"
)

type taskOpts struct {
	killAfter time.Duration
	onState   func(name string, s State)
	// launch inside Start instead of on the task goroutine
	syncLaunch bool
}

type StartOpt func(opts taskOpts) taskOpts

// KillAfter sends Kill to every member still running this long after a stop
// request. Zero (the default) waits forever.
func KillAfter(d time.Duration) StartOpt {
	return func(opts taskOpts) taskOpts {
		opts.killAfter = d
		return opts
	}
}

// OnStateChange registers a callback run after every state transition. It
// runs on the task's goroutine and must not block.
func OnStateChange(fn func(name string, s State)) StartOpt {
	return func(opts taskOpts) taskOpts {
		opts.onState = fn
		return opts
	}
}

// LaunchOnStart runs the launcher inside [Task.Start], so Start returns only
// once the members exist (or launching failed). Supervisors start children in
// order, which makes this the way to have one task up before the next begins.
func LaunchOnStart() StartOpt {
	return func(opts taskOpts) taskOpts {
		opts.syncLaunch = true
		return opts
	}
}
