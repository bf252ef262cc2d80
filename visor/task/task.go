// Tasks are the supervised units of procvisor. A task owns a set of members
// (subprocesses or in-process pumps) that live and die together, and moves
// through Starting -> Running -> Stopping -> Stopped exactly once.
//
// A task leaves Running for one of two reasons, and the first one wins:
//
//   - one of its members exits on its own. The task is the trigger: it stops
//     the remaining members and, once they are all gone, writes itself to the
//     rendezvous channel.
//   - the supervisor asks it to stop ([Task.Terminate], or the context passed
//     to [Task.Start] is cancelled). The supervisor already knows why the group
//     is going down, so the task stops its members and never reports.
//
// Either way every member is stopped before the task reaches Stopped, so a
// pipeline never outlives its head or its tail.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/exitreason"
	"github.com/uberbrodt/procvisor/visor/rendezvous"
)

// ErrSupervisorRequest is the shutdown reason of a task stopped by the
// supervisor.
var ErrSupervisorRequest = errors.New("stop requested by supervisor")

type Task struct {
	id       string
	name     string
	launcher Launcher
	opts     taskOpts

	mx        sync.Mutex
	state     State
	started   bool
	triggered bool
	requested bool
	err       error

	stopCh   chan struct{}
	stopOnce sync.Once
	killCh   chan struct{}
	killOnce sync.Once
	done     chan struct{}
}

type memberExited struct {
	member Member
}

func New(name string, launcher Launcher, opts ...StartOpt) *Task {
	topts := taskOpts{}
	for _, opt := range opts {
		topts = opt(topts)
	}

	return &Task{
		id:       xid.New().String(),
		name:     name,
		launcher: launcher,
		opts:     topts,
		state:    Starting,
		stopCh:   make(chan struct{}),
		killCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) State() State {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.state
}

// Done is closed once the task reaches Stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the exit reason of the task, valid once Done is closed. A task that
// was the trigger returns the exit reason of the member that exited first;
// a task stopped on request returns an [exitreason.Shutdown].
func (t *Task) Err() error {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.err
}

// Start launches the members in the background, or before returning with
// [LaunchOnStart]. Calling it more than once is a no-op.
func (t *Task) Start(ctx context.Context, rv *rendezvous.Channel) {
	t.mx.Lock()
	if t.started {
		t.mx.Unlock()
		return
	}
	t.started = true
	t.mx.Unlock()

	if t.opts.syncLaunch {
		members, err := t.launcher.Launch()
		go t.run(ctx, rv, members, err)
		return
	}
	go func() {
		members, err := t.launcher.Launch()
		t.run(ctx, rv, members, err)
	}()
}

// Terminate asks the task to stop and blocks until it has. It never writes to
// the rendezvous channel and is safe to call any number of times, including
// after the task already stopped on its own.
func (t *Task) Terminate() {
	t.requestStop()

	t.mx.Lock()
	if !t.started {
		t.started = true
		t.setState(Stopped)
		t.err = exitreason.Shutdown(ErrSupervisorRequest)
		close(t.done)
	}
	t.mx.Unlock()

	<-t.done
}

// Kill asks the task to stop and kills every member that is still running.
// It does not wait; use [Task.Done].
func (t *Task) Kill() {
	t.requestStop()
	t.killOnce.Do(func() { close(t.killCh) })
}

// requestStop marks the task as stopped by request before anything can see
// the stop, so a member exiting at the same moment cannot make it a trigger.
func (t *Task) requestStop() {
	t.mx.Lock()
	t.requested = true
	t.mx.Unlock()
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *Task) run(ctx context.Context, rv *rendezvous.Channel, members []Member, err error) {
	log := visor.Log().With("task", t.name, "task_id", t.id)

	if err != nil {
		if exitreason.IsExitReason(err) == nil {
			err = exitreason.LaunchFailed(err)
		}
		log.Error("task failed to launch", "error", err)
		t.mx.Lock()
		t.triggered = !t.requested
		t.setState(Stopping)
		t.mx.Unlock()
		stopAll(members)
		waitAll(members)
		t.finish(rv, err)
		return
	}

	t.mx.Lock()
	if t.state == Starting {
		t.setState(Running)
	}
	t.mx.Unlock()
	log.Debug("task running", "members", len(members))

	exited := make(chan memberExited, len(members))
	for _, m := range members {
		go func() {
			<-m.Done()
			exited <- memberExited{member: m}
		}()
	}

	pending := len(members)
	stopCh, killCh, ctxDone := t.stopCh, t.killCh, ctx.Done()
	var firstErr error
	var killTimer <-chan time.Time

	if pending == 0 {
		// nothing to supervise counts as having exited
		t.trigger()
		firstErr = exitreason.Normal
	}

	for pending > 0 {
		select {
		case msg := <-exited:
			pending--
			log.Debug("member exited", "member", msg.member.Name(), "reason", msg.member.Err())
			if firstErr == nil {
				firstErr = exitreason.Wrap(msg.member.Err())
			}
			if t.trigger() {
				log.Warn("member exited on its own, stopping task", "member", msg.member.Name(), "reason", firstErr)
				stopAll(members)
			}
		case <-ctxDone:
			ctxDone = nil
			t.requestStop()
		case <-stopCh:
			stopCh = nil
			if t.request() {
				log.Debug("stop requested")
				stopAll(members)
			}
			if t.opts.killAfter > 0 {
				killTimer = time.After(t.opts.killAfter)
			}
		case <-killTimer:
			killTimer = nil
			log.Warn("task did not stop in time, killing members", "after", t.opts.killAfter)
			killAll(members)
		case <-killCh:
			killCh = nil
			killAll(members)
		}
	}

	t.finish(rv, firstErr)
}

// trigger moves a running task to Stopping because a member exited on its
// own. It returns false if the task is already on its way down or a stop was
// requested.
func (t *Task) trigger() bool {
	t.mx.Lock()
	defer t.mx.Unlock()

	if t.requested {
		return false
	}
	if t.state != Running && t.state != Starting {
		return false
	}
	t.triggered = true
	t.setState(Stopping)
	return true
}

// request moves the task to Stopping because the supervisor asked. It returns
// false if the task is already on its way down.
func (t *Task) request() bool {
	t.mx.Lock()
	defer t.mx.Unlock()

	t.requested = true
	if t.state != Running && t.state != Starting {
		return false
	}
	t.setState(Stopping)
	return true
}

func (t *Task) finish(rv *rendezvous.Channel, firstErr error) {
	t.mx.Lock()
	triggered := t.triggered
	if triggered {
		t.err = firstErr
	} else {
		t.err = exitreason.Shutdown(ErrSupervisorRequest)
	}
	err := t.err
	t.setState(Stopped)
	t.mx.Unlock()

	if triggered && rv != nil {
		rv.Report(rendezvous.Report{Task: t.name, Err: err})
	}
	visor.DebugPrintf("task %s stopped: %v", t.name, err)
	close(t.done)
}

// setState must be called with t.mx held.
func (t *Task) setState(s State) {
	if t.state == s {
		return
	}
	t.state = s
	if t.opts.onState != nil {
		t.opts.onState(t.name, s)
	}
}

func stopAll(members []Member) {
	for _, m := range members {
		if err := m.Stop(); err != nil {
			visor.Log().Warn("failed to stop member", "member", m.Name(), "error", err)
		}
	}
}

func killAll(members []Member) {
	for _, m := range members {
		if err := m.Kill(); err != nil {
			visor.Log().Warn("failed to kill member", "member", m.Name(), "error", err)
		}
	}
}

func waitAll(members []Member) {
	for _, m := range members {
		<-m.Done()
	}
}
