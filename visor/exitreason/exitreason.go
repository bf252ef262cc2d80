// Every task and every port ends with an [*S] describing why. The specific kind
// decides what the supervisor does with it: a Normal or Exception exit of a
// running task is unexpected and fatal to the group, while Shutdown and
// Killed are what a task returns after the supervisor asked it to stop.
//
// Launch failures are their own kind so they can be told apart in logs, but
// the supervisor treats them exactly like an unexpected exit.
package exitreason

import (
	"errors"
	"fmt"
	"os"
)

const (
	normal       = "normal"
	shutdown     = "shutdown"
	exception    = "error"
	launchFailed = "launch_failed"
	killed       = "killed"
)

// Opaque return type. Use functions in this package to create new instances and
// test with the `Is*(exitreason) bool` functions.
//
// For convienence it implements the [errors] and [stringer] interfaces.
type S struct {
	short          string
	err            error
	shutdownReason any
	exception      error
	signal         os.Signal
}

func (s *S) Error() string {
	switch s.short {
	case exception:
		return fmt.Sprintf("EXIT{error: %v}", s.exception)
	case launchFailed:
		return fmt.Sprintf("EXIT{launch_failed: %v}", s.exception)
	case shutdown:
		return fmt.Sprintf("EXIT{shutdown: %v}", s.shutdownReason)
	case killed:
		return fmt.Sprintf("EXIT{killed: %v}", s.signal)
	default:
		return fmt.Sprintf("EXIT{%s}", s.short)
	}
}

// Shutdown exitreasons include optional information
func (s *S) ShutdownReason() any {
	return s.shutdownReason
}

// ExceptionDetail is the underlying error of an Exception or LaunchFailed
// reason.
func (s *S) ExceptionDetail() error {
	return s.exception
}

// Signal is the signal that killed the process, for Killed reasons.
func (s *S) Signal() os.Signal {
	return s.signal
}

func (s *S) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s.err != nil {
		errs = append(errs, s.err)
	}
	if s.exception != nil {
		errs = append(errs, s.exception)
	}
	return errs
}

// private Sentinel Errors that get wrapped
var (
	shutdownErr     = &S{short: shutdown}
	exceptionErr    = &S{short: exception}
	launchFailedErr = &S{short: launchFailed}
	killedErr       = &S{short: killed}
)

// Sentinel errors
var (
	// The workload ran to completion on its own and exited 0.
	Normal = &S{short: normal}
)

// Tests to see if error is or wraps a *S. If not, returns nil
func IsExitReason(e error) (err *S) {
	ok := errors.As(e, &err)

	if ok {
		return err
	}

	return nil
}

// Test if [exitReason] is "Normal"
func IsNormal(e error) bool {
	return errors.Is(e, Normal)
}

// Returned by a task that stopped because it was asked to. Optionally provide
// additional info, usually the signal that was delivered to its members.
func Shutdown(reason any) error {
	return &S{short: shutdown, shutdownReason: reason, err: shutdownErr}
}

// Test if [exitReason] is "Shutdown"
func IsShutdown(e error) bool {
	return errors.Is(e, shutdownErr)
}

// General "error" exitreason. Returned when a subprocess exits non-zero or an
// in-process member fails.
func Exception(reason error) error {
	return &S{exception: reason, err: exceptionErr, short: exception}
}

// Test if [exitReason] is "Exception"
func IsException(e error) bool {
	return errors.Is(e, exceptionErr)
}

// LaunchFailed is returned when a task could not start one of its members.
func LaunchFailed(reason error) error {
	return &S{exception: reason, err: launchFailedErr, short: launchFailed}
}

func IsLaunchFailed(e error) bool {
	return errors.Is(e, launchFailedErr)
}

// Killed is returned when a subprocess was terminated by a signal.
func Killed(sig os.Signal) error {
	return &S{signal: sig, err: killedErr, short: killed}
}

func IsKilled(e error) bool {
	return errors.Is(e, killedErr)
}

// Requested reports whether e is the kind of exit a task produces after being
// asked to stop.
func Requested(e error) bool {
	return IsShutdown(e) || IsKilled(e)
}

func To(e error) *S {
	return IsExitReason(e)
}

// Takes any error and if it is not a *S, then wraps it as an [exitreason.Exception].
// A nil error becomes [Normal].
func Wrap(e error) error {
	if e == nil {
		return Normal
	}
	if er := IsExitReason(e); er != nil {
		return er
	} else {
		return Exception(e)
	}
}
