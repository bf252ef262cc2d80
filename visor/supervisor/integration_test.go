package supervisor_test

import (
	"context"
	"strings"
	"syscall"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/poll"

	"github.com/uberbrodt/procvisor/chronos"
	"github.com/uberbrodt/procvisor/visor/appserver"
	"github.com/uberbrodt/procvisor/visor/exitreason"
	"github.com/uberbrodt/procvisor/visor/internal/test"
	"github.com/uberbrodt/procvisor/visor/projectpath"
	"github.com/uberbrodt/procvisor/visor/supervisor"
	"github.com/uberbrodt/procvisor/visor/task"
)

func script(name string) string {
	return projectpath.Join("visor/port/testdata", name)
}

func TestIntegration_ChildExitTakesDownTheGroup(t *testing.T) {
	var out test.Buffer
	sigs, ex := newSignals(), newExits()

	server := appserver.New(appserver.Config{Command: []string{script("trap_term.sh")}, Stdout: &out})
	failing := appserver.New(appserver.Config{
		Command: []string{script("fail_after_time.sh"), "6", "4"},
		Stdout:  &test.Buffer{},
	})

	sup := supervisor.New([]supervisor.Child{server, failing}, supervisor.WithHooks(ex.hooks(sigs)))
	cause := waitCause(t, runAsync(sup, context.Background()))

	assert.Equal(t, cause.Kind, supervisor.CauseUnexpectedExit)
	assert.Equal(t, cause.Task, "fail_after_time.sh")
	assert.Assert(t, exitreason.IsException(cause.Err))

	assert.Equal(t, server.State(), task.Stopped)
	assert.Equal(t, failing.State(), task.Stopped)
	assert.Assert(t, exitreason.Requested(server.Err()))
	assert.Assert(t, strings.Contains(out.String(), "got SIGTERM"))
}

func TestIntegration_TermStopsEverything(t *testing.T) {
	var first, second test.Buffer
	sigs, ex := newSignals(), newExits()

	a := appserver.New(appserver.Config{Command: []string{script("trap_term.sh")}, Stdout: &first})
	b := appserver.New(appserver.Config{Command: []string{script("trap_term.sh")}, Stdout: &second})

	sup := supervisor.New([]supervisor.Child{a, b}, supervisor.WithHooks(ex.hooks(sigs)))
	causes := runAsync(sup, context.Background())

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(first.String(), "started") && strings.Contains(second.String(), "started") {
			return poll.Success()
		}
		return poll.Continue("waiting for both programs")
	}, poll.WithTimeout(chronos.Dur("5s")))

	sigs.send(t, syscall.SIGTERM)
	cause := waitCause(t, causes)

	assert.Equal(t, cause.Signal, syscall.SIGTERM)
	assert.Assert(t, exitreason.Requested(a.Err()))
	assert.Assert(t, exitreason.Requested(b.Err()))
	assert.Assert(t, strings.Contains(first.String(), "got SIGTERM"))
	assert.Assert(t, strings.Contains(second.String(), "got SIGTERM"))
}

func TestIntegration_LaunchFailureIsUnexpectedExit(t *testing.T) {
	sigs, ex := newSignals(), newExits()

	server := appserver.New(appserver.Config{Command: []string{script("trap_term.sh")}, Stdout: &test.Buffer{}})
	missing := appserver.New(appserver.Config{Command: []string{"no-such-program"}})

	sup := supervisor.New([]supervisor.Child{server, missing}, supervisor.WithHooks(ex.hooks(sigs)))
	cause := waitCause(t, runAsync(sup, context.Background()))

	assert.Equal(t, cause.Task, "no-such-program")
	assert.Assert(t, exitreason.IsLaunchFailed(cause.Err))
	assert.Equal(t, server.State(), task.Stopped)
}
