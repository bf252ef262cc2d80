// Package exitwaiter blocks until a set of tasks has exited, logging the ones
// that are slow to go.
package exitwaiter

import (
	"context"
	"sync"
	"time"

	"github.com/uberbrodt/fungo/fun"

	"github.com/uberbrodt/procvisor/visor"
)

// Waitable is anything with a name and a channel closed on exit.
type Waitable interface {
	Name() string
	Done() <-chan struct{}
}

// Wait returns once every task's Done channel is closed, or with ctx's error
// if ctx ends first. Every interval the tasks still running are logged.
func Wait[T Waitable](ctx context.Context, tasks []T, interval time.Duration) error {
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, t := range tasks {
		go func() {
			defer wg.Done()
			<-t.Done()
		}()
	}
	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-allDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			waiting := fun.Reduce(Pending(tasks), []string{}, func(t T, acc []string) []string {
				return append(acc, t.Name())
			})
			visor.Log().Info("still waiting for tasks to exit", "tasks", waiting)
		}
	}
}

// Pending returns the tasks that have not exited yet.
func Pending[T Waitable](tasks []T) []T {
	return fun.Filter(tasks, func(t T) bool {
		select {
		case <-t.Done():
			return false
		default:
			return true
		}
	})
}
