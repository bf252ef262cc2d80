package logmux

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
	"gotest.tools/v3/poll"

	"github.com/uberbrodt/procvisor/chronos"
	"github.com/uberbrodt/procvisor/visor/exitreason"
	"github.com/uberbrodt/procvisor/visor/internal/test"
	"github.com/uberbrodt/procvisor/visor/rendezvous"
	"github.com/uberbrodt/procvisor/visor/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const wrapped = `[2024-01-01T00:00:00Z] WARNING: [pool www] child 123 said into stdout: "hello world"`

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	assert.NilError(t, err)
	_, err = f.WriteString(line + "\n")
	assert.NilError(t, err)
	assert.NilError(t, f.Close())
}

func waitOutput(t *testing.T, out *test.Buffer, want string) {
	t.Helper()
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), want) {
			return poll.Success()
		}
		return poll.Continue("output so far: %q", out.String())
	}, poll.WithTimeout(chronos.Dur("5s")))
}

func startMux(t *testing.T, conf Config) (*task.Task, *rendezvous.Channel) {
	t.Helper()
	rv := rendezvous.New()
	tk := New(conf)
	tk.Start(context.Background(), rv)
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		switch tk.State() {
		case task.Running:
			return poll.Success()
		case task.Stopped:
			return poll.Error(fmt.Errorf("logmux stopped: %v", tk.Err()))
		}
		return poll.Continue("logmux is %s", tk.State())
	}, poll.WithTimeout(chronos.Dur("2s")))
	return tk, rv
}

func stopMux(t *testing.T, tk *task.Task, rv *rendezvous.Channel) {
	t.Helper()
	tk.Terminate()
	assert.Equal(t, tk.State(), task.Stopped)
	assert.Assert(t, exitreason.Requested(tk.Err()))
	select {
	case r := <-rv.C():
		t.Fatalf("terminate must not report: %+v", r)
	default:
	}
}

func TestNative_FollowsAndRewrites(t *testing.T) {
	dir := fs.NewDir(t, "logmux", fs.WithFile("old.log", "already there\n"))
	var out test.Buffer

	paths := []string{dir.Join("old.log"), dir.Join("fpm", "error.log")}
	tk, rv := startMux(t, Config{Paths: paths, Mode: ModeNative, Out: &out})

	appendLine(t, paths[1], wrapped)
	appendLine(t, paths[0], "plain")
	waitOutput(t, &out, "plain\n")
	waitOutput(t, &out, "hello world\n")
	assert.Assert(t, !strings.Contains(out.String(), "already there"))
	assert.Assert(t, !strings.Contains(out.String(), "WARNING"))

	stopMux(t, tk, rv)
}

func TestNative_FollowingWhenStartReturns(t *testing.T) {
	dir := fs.NewDir(t, "logmux")
	var out test.Buffer
	path := dir.Join("fpm", "error.log")

	rv := rendezvous.New()
	tk := New(Config{Paths: []string{path}, Mode: ModeNative, Out: &out})
	tk.Start(context.Background(), rv)

	// no wait: the file exists and is followed once Start returns
	_, err := os.Stat(path)
	assert.NilError(t, err)
	appendLine(t, path, "first line")
	waitOutput(t, &out, "first line\n")

	stopMux(t, tk, rv)
}

func TestNative_RestartsAfterTruncation(t *testing.T) {
	dir := fs.NewDir(t, "logmux")
	var out test.Buffer
	path := dir.Join("error.log")

	tk, rv := startMux(t, Config{Paths: []string{path}, Mode: ModeNative, Out: &out})

	appendLine(t, path, "a rather long first line")
	waitOutput(t, &out, "a rather long first line\n")

	assert.NilError(t, os.Truncate(path, 0))
	appendLine(t, path, "short")
	waitOutput(t, &out, "short\n")

	stopMux(t, tk, rv)
}

func TestNative_ReopensRotatedFile(t *testing.T) {
	dir := fs.NewDir(t, "logmux")
	var out test.Buffer
	path := dir.Join("error.log")

	tk, rv := startMux(t, Config{Paths: []string{path}, Mode: ModeNative, Out: &out})

	appendLine(t, path, "before rotation")
	waitOutput(t, &out, "before rotation\n")

	assert.NilError(t, os.Rename(path, path+".1"))
	appendLine(t, path, "after rotation")
	waitOutput(t, &out, "after rotation\n")

	stopMux(t, tk, rv)
}

func TestNative_PollCatchesMissedWrites(t *testing.T) {
	dir := fs.NewDir(t, "logmux")
	var out test.Buffer
	path := dir.Join("error.log")

	tk, rv := startMux(t, Config{
		Paths:        []string{path},
		Mode:         ModeNative,
		Out:          &out,
		PollInterval: chronos.Dur("20ms"),
	})

	// no newline yet: nothing is forwarded until the line is complete
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	assert.NilError(t, err)
	_, err = f.WriteString("half")
	assert.NilError(t, err)
	time.Sleep(chronos.Dur("100ms"))
	assert.Equal(t, out.String(), "")

	_, err = f.WriteString(" and the rest\n")
	assert.NilError(t, err)
	assert.NilError(t, f.Close())
	waitOutput(t, &out, "half and the rest\n")

	stopMux(t, tk, rv)
}

// keep appending probes until tail has opened the file, lines written before
// that are not followed
func waitTailReady(t *testing.T, path string, out *test.Buffer) {
	t.Helper()
	n := 0
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), "probe") {
			return poll.Success()
		}
		n++
		appendLine(t, path, fmt.Sprintf("probe %d", n))
		return poll.Continue("tail not following yet")
	}, poll.WithTimeout(chronos.Dur("5s")), poll.WithDelay(chronos.Dur("50ms")))
}

func TestTail_FollowsAndRewrites(t *testing.T) {
	test.NeedsProgram(t, "tail")
	dir := fs.NewDir(t, "logmux")
	var out test.Buffer
	path := dir.Join("fpm", "error.log")

	tk, rv := startMux(t, Config{Paths: []string{path}, Mode: ModeTail, Out: &out})
	waitTailReady(t, path, &out)

	appendLine(t, path, wrapped)
	appendLine(t, path, `[t] WARNING: [pool www] child 1 said into stderr: "cut sho...`)
	waitOutput(t, &out, "hello world\ncut sho...\n")

	stopMux(t, tk, rv)
}

func TestTail_HeadExitStopsPipeline(t *testing.T) {
	test.NeedsProgram(t, "true")
	dir := fs.NewDir(t, "logmux")

	rv := rendezvous.New()
	tk := New(Config{Paths: []string{dir.Join("error.log")}, TailProgram: "true", Out: &test.Buffer{}})
	tk.Start(context.Background(), rv)

	select {
	case r := <-rv.C():
		assert.Equal(t, r.Task, "logmux")
		assert.Assert(t, exitreason.IsNormal(r.Err))
	case <-time.After(chronos.Dur("5s")):
		t.Fatal("pipeline exit was not reported")
	}
	<-tk.Done()
	assert.Equal(t, tk.State(), task.Stopped)
}

func TestTail_MissingProgramIsLaunchFailure(t *testing.T) {
	dir := fs.NewDir(t, "logmux")

	rv := rendezvous.New()
	tk := New(Config{Paths: []string{dir.Join("error.log")}, TailProgram: "no-such-tail-program"})
	tk.Start(context.Background(), rv)

	r := <-rv.C()
	assert.Assert(t, exitreason.IsLaunchFailed(r.Err))
	<-tk.Done()
}

func TestUnknownModeIsLaunchFailure(t *testing.T) {
	dir := fs.NewDir(t, "logmux")

	rv := rendezvous.New()
	tk := New(Config{Paths: []string{dir.Join("error.log")}, Mode: "carrier-pigeon"})
	tk.Start(context.Background(), rv)

	r := <-rv.C()
	assert.Assert(t, exitreason.IsLaunchFailed(r.Err))
	assert.ErrorContains(t, r.Err, "unknown follow mode")
	<-tk.Done()
}
