// Package rendezvous is the single slot a child task writes to when it exits
// on its own. Only the first write is kept; every later write is dropped, so a
// task that dies while the group is already being torn down can never look
// like a second trigger.
package rendezvous

import (
	"sync"

	"github.com/uberbrodt/procvisor/visor"
)

// Report identifies the task that exited and how it ended.
type Report struct {
	Task string
	Err  error
}

type Channel struct {
	slot    chan Report
	mx      sync.Mutex
	written bool
	first   Report
	dropped int64
}

func New() *Channel {
	return &Channel{slot: make(chan Report, 1)}
}

// Report writes r to the slot if it is still empty. It never blocks and
// returns true if r was the first write.
func (c *Channel) Report(r Report) bool {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.written {
		c.dropped++
		visor.DebugPrintf("rendezvous: dropped report from %s, %s already reported", r.Task, c.first.Task)
		return false
	}
	c.written = true
	c.first = r
	c.slot <- r
	return true
}

// C returns the channel the supervisor reads the first report from. It is
// meant to be read exactly once.
func (c *Channel) C() <-chan Report {
	return c.slot
}

// Dropped is the number of reports that arrived after the first one.
func (c *Channel) Dropped() int64 {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.dropped
}
