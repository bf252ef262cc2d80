package logmux

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/uberbrodt/procvisor/visor/exitreason"
	"github.com/uberbrodt/procvisor/visor/port"
)

// pump is the in-process tail of the pipeline: it reads the merged stream
// line by line, unwraps worker output and writes every line to out.
type pump struct {
	in      io.ReadCloser
	out     io.Writer
	maxLine int

	done      chan struct{}
	closeOnce sync.Once
	stopped   atomic.Bool
	err       error
}

func startPump(in io.ReadCloser, out io.Writer, maxLine int) *pump {
	p := &pump{in: in, out: out, maxLine: maxLine, done: make(chan struct{})}
	go p.run()
	return p
}

func (p *pump) run() {
	defer close(p.done)
	defer p.release()

	scanner := bufio.NewScanner(p.in)
	scanner.Buffer(make([]byte, 0, 4096), p.maxLine)
	scanner.Split(port.DecodeBoundedLines(p.maxLine))

	buf := make([]byte, 0, 4096)
	for scanner.Scan() {
		line, rewritten := Rewrite(scanner.Bytes())
		buf = append(append(buf[:0], line...), '\n')
		if _, err := p.out.Write(buf); err != nil {
			p.err = exitreason.Exception(err)
			return
		}
		recordLine(rewritten)
	}

	err := scanner.Err()
	switch {
	case p.stopped.Load():
		p.err = exitreason.Shutdown("log pump stopped")
	case err == nil:
		// the upstream closed its end
		p.err = exitreason.Normal
	case errors.Is(err, os.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		p.err = exitreason.Shutdown("log pump stopped")
	default:
		p.err = exitreason.Exception(err)
	}
}

func (p *pump) release() {
	p.closeOnce.Do(func() { p.in.Close() })
}

func (p *pump) Name() string {
	return "rewrite"
}

func (p *pump) Done() <-chan struct{} {
	return p.done
}

func (p *pump) Err() error {
	<-p.done
	return p.err
}

// Stop closes the input, which ends the scan.
func (p *pump) Stop() error {
	p.stopped.Store(true)
	p.release()
	return nil
}

func (p *pump) Kill() error {
	return p.Stop()
}
