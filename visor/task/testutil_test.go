package task

import (
	"errors"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/uberbrodt/procvisor/visor/exitreason"
)

// fakeMember stands in for a port. It exits when stopped, unless it ignores
// stops, and always exits when killed.
type fakeMember struct {
	name       string
	ignoreStop bool
	done       chan struct{}
	once       sync.Once
	err        atomic.Value
	stops      atomic.Int32
	kills      atomic.Int32
}

func newFake(name string) *fakeMember {
	return &fakeMember{name: name, done: make(chan struct{})}
}

func (f *fakeMember) Name() string { return f.name }

func (f *fakeMember) Done() <-chan struct{} { return f.done }

func (f *fakeMember) Err() error {
	err, _ := f.err.Load().(error)
	return err
}

func (f *fakeMember) Stop() error {
	f.stops.Add(1)
	if !f.ignoreStop {
		f.exit(exitreason.Normal)
	}
	return nil
}

func (f *fakeMember) Kill() error {
	f.kills.Add(1)
	f.exit(exitreason.Killed(syscall.SIGKILL))
	return nil
}

// exit simulates the member exiting on its own.
func (f *fakeMember) exit(err error) {
	f.once.Do(func() {
		f.err.Store(err)
		close(f.done)
	})
}

func launch(members ...Member) Launcher {
	return LaunchFunc(func() ([]Member, error) {
		return members, nil
	})
}

var errBoom = errors.New("boom")
