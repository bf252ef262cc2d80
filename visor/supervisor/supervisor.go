// Package supervisor runs a fixed set of tasks as one unit. The first task to
// exit, or the first termination signal, takes the whole group down, and the
// supervisor then leaves the way its trigger asks: re-raising the signal, or
// with status 1 after an unexpected exit.
package supervisor

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/rs/xid"
	"github.com/uberbrodt/fungo/fun"
	"golang.org/x/sync/errgroup"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/exitwaiter"
	"github.com/uberbrodt/procvisor/visor/rendezvous"
	"github.com/uberbrodt/procvisor/visor/task"
)

//go:generate mockgen -destination ./internal/mock/supervisor.go -package mock . Child,Observer

// Child is a supervised task. [*task.Task] implements it.
type Child interface {
	Name() string
	// Start launches the task in the background. The task reports to rv if
	// it exits without being asked to.
	Start(ctx context.Context, rv *rendezvous.Channel)
	// Terminate stops the task without reporting and blocks until it has.
	Terminate()
	// Kill forces the task down without blocking.
	Kill()
	State() task.State
	Done() <-chan struct{}
}

// Observer is told about task starts and the shutdown cause. Calls are made
// from the supervisor's goroutine and must not block.
type Observer interface {
	OnStart(task string)
	OnShutdown(cause Cause)
}

type nopObserver struct{}

func (nopObserver) OnStart(string)   {}
func (nopObserver) OnShutdown(Cause) {}

type Supervisor struct {
	id       xid.ID
	children []Child
	rv       *rendezvous.Channel
	opts     supOpts
}

func New(children []Child, opts ...Opt) *Supervisor {
	return &Supervisor{
		id:       xid.New(),
		children: children,
		rv:       rendezvous.New(),
		opts:     buildOpts(opts),
	}
}

// Supervise runs the children and ends the process the way the shutdown
// cause asks. It never returns.
func (s *Supervisor) Supervise(ctx context.Context) {
	s.Finish(s.Run(ctx))
}

// Run starts every child and blocks until the first signal or unexpected
// exit. It then terminates all children, waits for every one of them to stop
// and returns what started the shutdown.
func (s *Supervisor) Run(ctx context.Context) Cause {
	log := visor.Log().With("run_id", s.id)

	// handlers go in before any child exists so no signal is missed
	sigs := make(chan os.Signal, 4)
	s.opts.notify(sigs, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	defer s.opts.stopNotify(sigs)

	interactive := s.opts.interactive.Interactive()
	log.Debug("supervisor starting", "tasks", len(s.children), "interactive", interactive)

	for _, c := range s.children {
		s.opts.observer.OnStart(c.Name())
		c.Start(ctx, s.rv)
	}

	cause := s.awaitTrigger(ctx, sigs, interactive)
	s.opts.observer.OnShutdown(cause)

	// later signals are swallowed until we are done
	stopDrain := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case sig := <-sigs:
				visor.DebugPrintf("supervisor: already going down, ignoring %v", sig)
			case <-stopDrain:
				return
			}
		}
	}()

	log.Info("Going down, terminating child processes...", "cause", cause.String())
	s.terminateAll(log)

	close(stopDrain)
	<-drained

	if cause.Kind == CauseUnexpectedExit {
		log.Error("Unexpected exit", "task", cause.Task, "reason", cause.Err)
	}
	if n := s.rv.Dropped(); n > 0 {
		visor.DebugPrintf("supervisor: %d later exit reports ignored", n)
	}
	return cause
}

func (s *Supervisor) awaitTrigger(ctx context.Context, sigs <-chan os.Signal, interactive bool) Cause {
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGINT && !interactive {
				visor.DebugPrintf("supervisor: ignoring %v, not interactive", sig)
				continue
			}
			return Cause{Kind: CauseSignal, Signal: sig}
		case r := <-s.rv.C():
			return Cause{Kind: CauseUnexpectedExit, Task: r.Task, Err: r.Err}
		case <-ctx.Done():
			return Cause{Kind: CauseCanceled, Err: ctx.Err()}
		}
	}
}

// terminateAll broadcasts Terminate in parallel and waits until every child
// is stopped. With KillAfter set, children still alive after it are killed.
func (s *Supervisor) terminateAll(log *slog.Logger) {
	running := fun.Filter(s.children, func(c Child) bool {
		return c.State() != task.Stopped
	})

	var g errgroup.Group
	for _, c := range running {
		g.Go(func() error {
			c.Terminate()
			return nil
		})
	}

	waitCtx := context.Background()
	if s.opts.killAfter > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, s.opts.killAfter)
		defer cancel()
	}

	if err := exitwaiter.Wait(waitCtx, s.children, s.opts.waitLogEvery); err != nil {
		stragglers := exitwaiter.Pending(s.children)
		for _, c := range stragglers {
			log.Warn("task did not stop in time, killing it", "task", c.Name(), "after", s.opts.killAfter)
			c.Kill()
		}
		_ = exitwaiter.Wait(context.Background(), stragglers, s.opts.waitLogEvery)
	}

	_ = g.Wait()
}

// Finish ends the process according to cause and never returns. A signal is
// re-raised against ourselves with its default disposition; if that leaves
// us alive the exit status is 128+signal.
func (s *Supervisor) Finish(cause Cause) {
	switch cause.Kind {
	case CauseSignal:
		sig, ok := cause.Signal.(syscall.Signal)
		if !ok {
			s.opts.exit(1)
			break
		}
		if err := s.opts.raise(sig); err != nil {
			visor.Log().Error("could not re-raise signal", "signal", sig, "error", err)
		}
		time.Sleep(s.opts.reraiseWait)
		s.opts.exit(128 + int(sig))
	case CauseUnexpectedExit:
		s.opts.exit(1)
	default:
		s.opts.exit(0)
	}
	panic("supervisor: exit returned")
}
