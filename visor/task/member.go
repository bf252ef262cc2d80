package task

// A Member is one unit of work owned by a task: an OS subprocess
// ([port.Port]) or an in-process pump. A task is done when all of its members
// are done.
type Member interface {
	Name() string
	// Done is closed once the member has fully exited.
	Done() <-chan struct{}
	// Err is the member's exit reason, valid once Done is closed.
	Err() error
	// Stop asks the member to exit. It must not block.
	Stop() error
	// Kill forces the member to exit. It must not block.
	Kill() error
}

// Launcher starts the members of a task. Members are started in order; the
// Launcher should return the members it already started alongside an error
// so they can be torn down.
type Launcher interface {
	Launch() ([]Member, error)
}

// LaunchFunc adapts a function to [Launcher].
type LaunchFunc func() ([]Member, error)

func (f LaunchFunc) Launch() ([]Member, error) {
	return f()
}
