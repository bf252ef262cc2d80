package task

import (
	"sync"
	"sync/atomic"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/exitreason"
)

// funcMember runs a blocking function as a member. The cleanup function makes
// it return, which fits things like [net/http.Server] that block a goroutine
// but can be closed through a pointer.
type funcMember struct {
	name    string
	cleanup func() error

	done     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	err      error
}

// Go starts run on its own goroutine and returns it as a [Member]. Stop calls
// cleanup, which must make run return.
func Go(name string, run func() error, cleanup func() error) Member {
	m := &funcMember{name: name, cleanup: cleanup, done: make(chan struct{})}
	go func() {
		defer close(m.done)
		err := run()
		switch {
		case m.stopped.Load():
			m.err = exitreason.Shutdown(name + " stopped")
		case err == nil:
			m.err = exitreason.Normal
		default:
			m.err = exitreason.Exception(err)
		}
	}()
	return m
}

func (m *funcMember) Name() string {
	return m.name
}

func (m *funcMember) Done() <-chan struct{} {
	return m.done
}

func (m *funcMember) Err() error {
	<-m.done
	return m.err
}

func (m *funcMember) Stop() error {
	m.stopOnce.Do(func() {
		m.stopped.Store(true)
		go func() {
			if err := m.cleanup(); err != nil {
				visor.Log().Warn("member cleanup failed", "member", m.name, "error", err)
			}
		}()
	})
	return nil
}

func (m *funcMember) Kill() error {
	return m.Stop()
}
