package test

import (
	"bytes"
	"sync"
)

// Buffer is a bytes.Buffer safe to write from one goroutine while a test
// reads it from another.
type Buffer struct {
	mx  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.String()
}
