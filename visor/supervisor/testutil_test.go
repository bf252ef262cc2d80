package supervisor_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"

	"github.com/uberbrodt/procvisor/chronos"
	"github.com/uberbrodt/procvisor/visor/rendezvous"
	"github.com/uberbrodt/procvisor/visor/supervisor"
	"github.com/uberbrodt/procvisor/visor/supervisor/internal/mock"
	"github.com/uberbrodt/procvisor/visor/task"
)

var errBoom = errors.New("boom")

// signals stands in for os/signal: tests deliver signals by hand.
type signals struct {
	mx      sync.Mutex
	c       chan<- os.Signal
	ready   chan struct{}
	stopped atomic.Bool
}

func newSignals() *signals {
	return &signals{ready: make(chan struct{})}
}

func (s *signals) notify(c chan<- os.Signal, _ ...os.Signal) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.c = c
	close(s.ready)
}

func (s *signals) stop(chan<- os.Signal) {
	s.stopped.Store(true)
}

func (s *signals) send(t *testing.T, sig os.Signal) {
	t.Helper()
	select {
	case <-s.ready:
	case <-time.After(chronos.Dur("2s")):
		t.Fatal("signal handlers never installed")
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	s.c <- sig
}

// exits records what Finish asked for. The fake exit ends the calling
// goroutine the way os.Exit ends the process.
type exits struct {
	code   chan int
	raised chan syscall.Signal
}

func newExits() *exits {
	return &exits{code: make(chan int, 1), raised: make(chan syscall.Signal, 1)}
}

func (e *exits) exit(code int) {
	e.code <- code
	runtime.Goexit()
}

func (e *exits) raise(sig syscall.Signal) error {
	e.raised <- sig
	return nil
}

func (e *exits) hooks(s *signals) supervisor.Hooks {
	return supervisor.Hooks{
		Notify:     s.notify,
		StopNotify: s.stop,
		Raise:      e.raise,
		Exit:       e.exit,
	}
}

// fakeChild is a mock child that runs until terminated or killed.
type fakeChild struct {
	*mock.MockChild
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
	rv      atomic.Pointer[rendezvous.Channel]
	started chan struct{}
}

func newChild(ctrl *gomock.Controller, name string) *fakeChild {
	c := &fakeChild{
		MockChild: mock.NewMockChild(ctrl),
		done:      make(chan struct{}),
		started:   make(chan struct{}),
	}
	c.EXPECT().Name().Return(name).AnyTimes()
	c.EXPECT().Done().Return((<-chan struct{})(c.done)).AnyTimes()
	c.EXPECT().State().DoAndReturn(func() task.State {
		if c.stopped.Load() {
			return task.Stopped
		}
		return task.Running
	}).AnyTimes()
	return c
}

// expectStart makes Start succeed once.
func (c *fakeChild) expectStart() *fakeChild {
	c.EXPECT().Start(gomock.Any(), gomock.Any()).Do(func(_ context.Context, rv *rendezvous.Channel) {
		c.rv.Store(rv)
		close(c.started)
	}).Times(1)
	return c
}

// expectTerminate makes Terminate stop the child once.
func (c *fakeChild) expectTerminate() *fakeChild {
	c.EXPECT().Terminate().Do(c.stop).Times(1)
	return c
}

func (c *fakeChild) stop() {
	c.once.Do(func() {
		c.stopped.Store(true)
		close(c.done)
	})
}

// exitOnItsOwn plays a task that stops by itself and reports.
func (c *fakeChild) exitOnItsOwn(t *testing.T, err error) {
	t.Helper()
	select {
	case <-c.started:
	case <-time.After(chronos.Dur("2s")):
		t.Fatal("child never started")
	}
	c.stop()
	c.rv.Load().Report(rendezvous.Report{Task: c.Name(), Err: err})
}

// finishEnv makes the test binary finish itself through a real supervisor
// instead of running tests. The value is a signal number or "unexpected".
const finishEnv = "PROCVISOR_TEST_FINISH"

func finishNow(mode string) {
	// a re-raised QUIT must not leave a core file behind
	_ = unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{})

	cause := supervisor.Cause{Kind: supervisor.CauseUnexpectedExit, Task: "php-fpm", Err: errBoom}
	if mode != "unexpected" {
		n, err := strconv.Atoi(mode)
		if err != nil {
			os.Exit(3)
		}
		cause = supervisor.Cause{Kind: supervisor.CauseSignal, Signal: syscall.Signal(n)}
	}
	supervisor.New(nil).Finish(cause)
}

// finishInChild re-runs the test binary with finishEnv set and returns how
// it ended.
func finishInChild(t *testing.T, mode string) syscall.WaitStatus {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), finishEnv+"="+mode)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	assert.Assert(t, errors.As(err, &exitErr), "child did not fail: %v\n%s", err, out)
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	assert.Assert(t, ok)
	return ws
}
