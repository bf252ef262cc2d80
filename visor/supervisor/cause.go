package supervisor

import (
	"fmt"
	"os"
)

type CauseKind int

const (
	// CauseSignal is a termination signal delivered to the supervisor.
	CauseSignal CauseKind = iota + 1
	// CauseUnexpectedExit is a task that exited (or failed to launch) without
	// being asked to.
	CauseUnexpectedExit
	// CauseCanceled is the context given to [Supervisor.Run] being canceled.
	CauseCanceled
)

func (k CauseKind) String() string {
	switch k {
	case CauseSignal:
		return "signal"
	case CauseUnexpectedExit:
		return "unexpected_exit"
	case CauseCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("CauseKind(%d)", int(k))
	}
}

// Cause is the one event that started the shutdown sequence.
type Cause struct {
	Kind CauseKind
	// Signal is set for CauseSignal.
	Signal os.Signal
	// Task and Err are set for CauseUnexpectedExit.
	Task string
	Err  error
}

func (c Cause) String() string {
	switch c.Kind {
	case CauseSignal:
		return fmt.Sprintf("signal %v", c.Signal)
	case CauseUnexpectedExit:
		return fmt.Sprintf("unexpected exit of %s: %v", c.Task, c.Err)
	default:
		return c.Kind.String()
	}
}
