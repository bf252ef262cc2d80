package logmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/exitreason"
)

// followed is one file of the merged stream. pending holds the bytes of a
// line that has not been terminated yet, so lines from different files never
// interleave.
type followed struct {
	path    string
	f       *os.File
	info    os.FileInfo
	offset  int64
	pending []byte
}

// follower is the in-process replacement for `tail -F`: it copies complete
// lines appended to any of its files into w.
type follower struct {
	files     []*followed
	byPath    map[string]*followed
	w         *io.PipeWriter
	watcher   *fsnotify.Watcher
	pollEvery time.Duration
	maxLine   int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

func startFollower(paths []string, w *io.PipeWriter, pollEvery time.Duration, maxLine int) (*follower, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	fl := &follower{
		byPath:    make(map[string]*followed, len(paths)),
		w:         w,
		watcher:   watcher,
		pollEvery: pollEvery,
		maxLine:   maxLine,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		path = filepath.Clean(path)
		if _, ok := fl.byPath[path]; ok {
			continue
		}
		ff := &followed{path: path}
		fl.files = append(fl.files, ff)
		fl.byPath[path] = ff

		// existing content is skipped, like `tail -n 0`
		if err := ff.open(true); err != nil && !errors.Is(err, os.ErrNotExist) {
			fl.closeFiles()
			watcher.Close()
			return nil, err
		}

		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			fl.closeFiles()
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go fl.run()
	return fl, nil
}

func (fl *follower) run() {
	defer close(fl.done)

	ticker := time.NewTicker(fl.pollEvery)
	defer ticker.Stop()

	err := fl.loop(ticker.C)

	fl.closeFiles()
	fl.watcher.Close()
	fl.w.Close()

	switch {
	case err == nil:
		fl.err = exitreason.Shutdown("log follower stopped")
	case errors.Is(err, io.ErrClosedPipe):
		// the reading side went away first
		fl.err = exitreason.Shutdown(err)
	default:
		fl.err = exitreason.Exception(err)
	}
}

func (fl *follower) loop(tick <-chan time.Time) error {
	for {
		select {
		case <-fl.stop:
			return nil
		case ev, ok := <-fl.watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			ff, tracked := fl.byPath[filepath.Clean(ev.Name)]
			if !tracked || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if err := fl.drain(ff); err != nil {
				return err
			}
		case err, ok := <-fl.watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			visor.Log().Warn("log follower watch error", "error", err)
		case <-tick:
			for _, ff := range fl.files {
				if err := fl.drain(ff); err != nil {
					return err
				}
			}
		}
	}
}

// drain brings one file up to date: reopen when it was replaced, rewind when
// it was truncated, then forward whatever was appended.
func (fl *follower) drain(ff *followed) error {
	info, err := os.Stat(ff.path)
	if errors.Is(err, os.ErrNotExist) {
		ff.close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", ff.path, err)
	}

	if ff.f == nil || !os.SameFile(ff.info, info) {
		ff.close()
		if err := ff.open(false); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		visor.DebugPrintf("log follower: following %s from the start", ff.path)
	} else if info.Size() < ff.offset {
		visor.DebugPrintf("log follower: %s truncated, rewinding", ff.path)
		if _, err := ff.f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", ff.path, err)
		}
		ff.offset = 0
		ff.pending = ff.pending[:0]
	}

	return fl.forward(ff)
}

func (fl *follower) forward(ff *followed) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := ff.f.Read(buf)
		if n > 0 {
			ff.offset += int64(n)
			if werr := fl.emit(ff, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", ff.path, err)
		}
	}
}

// emit writes the complete lines of chunk and keeps the rest for later. A
// partial line that outgrows maxLine is flushed as is.
func (fl *follower) emit(ff *followed, chunk []byte) error {
	ff.pending = append(ff.pending, chunk...)
	i := bytes.LastIndexByte(ff.pending, '\n')
	if i < 0 {
		if len(ff.pending) < fl.maxLine {
			return nil
		}
		i = len(ff.pending) - 1
		ff.pending = append(ff.pending, '\n')
	}
	if _, err := fl.w.Write(ff.pending[:i+1]); err != nil {
		return err
	}
	ff.pending = append(ff.pending[:0], ff.pending[i+1:]...)
	return nil
}

func (fl *follower) closeFiles() {
	for _, ff := range fl.files {
		ff.close()
	}
}

func (ff *followed) open(atEnd bool) error {
	f, err := os.Open(ff.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", ff.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", ff.path, err)
	}
	var offset int64
	if atEnd {
		if offset, err = f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return fmt.Errorf("seek %s: %w", ff.path, err)
		}
	}
	ff.f, ff.info, ff.offset = f, info, offset
	ff.pending = ff.pending[:0]
	return nil
}

func (ff *followed) close() {
	if ff.f != nil {
		ff.f.Close()
		ff.f = nil
	}
}

func (fl *follower) Name() string {
	return "follow"
}

func (fl *follower) Done() <-chan struct{} {
	return fl.done
}

func (fl *follower) Err() error {
	<-fl.done
	return fl.err
}

func (fl *follower) Stop() error {
	fl.stopOnce.Do(func() { close(fl.stop) })
	return nil
}

func (fl *follower) Kill() error {
	return fl.Stop()
}
