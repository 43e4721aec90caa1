// Package ioqueue provides a buffered asynchronous writer: writes
// return as soon as they fit in the internal buffer, even if the
// wrapped writer is currently blocked draining a previous write, and
// only block once the buffer is full. SFTP uploads use it so a large
// local file is queued to the remote writer in chunks without the
// caller stalling on every round trip.
package ioqueue

import (
	"io"
	"runtime"
	"sync"
)

// Writer wraps an io.Writer with a fixed-capacity staging buffer
// drained by a background goroutine.
type Writer struct {
	upstream    io.Writer
	cond        *sync.Cond
	buffer      []byte
	bufferIndex int

	writeNotify chan struct{}
	upstreamErr error
}

// NewWriter starts a Writer over upstream with the given buffer capacity.
func NewWriter(upstream io.Writer, capacity int) *Writer {
	w := &Writer{
		upstream:    upstream,
		cond:        sync.NewCond(&sync.Mutex{}),
		buffer:      make([]byte, capacity),
		writeNotify: make(chan struct{}, 1),
	}
	go w.drain()
	return w
}

func (w *Writer) drain() {
	lastSent := 0
	for range w.writeNotify {
		w.cond.L.Lock()
		next := w.bufferIndex
		w.cond.L.Unlock()

		_, w.upstreamErr = w.upstream.Write(w.buffer[lastSent:next])
		lastSent = next
		if w.upstreamErr != nil {
			return
		}

		w.cond.L.Lock()
		if w.bufferIndex == next {
			w.bufferIndex = 0
			lastSent = 0
		}
		w.cond.Signal()
		w.cond.L.Unlock()
	}
}

// Close stops accepting writes and closes upstream if it implements
// io.Closer.
func (w *Writer) Close() error {
	if w.upstreamErr == nil {
		w.upstreamErr = io.EOF
	}
	close(w.writeNotify)
	w.cond.Broadcast()
	if closer, ok := w.upstream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Write stages p into the buffer, blocking only if the buffer is full.
func (w *Writer) Write(p []byte) (int, error) {
	if w.upstreamErr != nil {
		return 0, w.upstreamErr
	}

	w.cond.L.Lock()
	n := copy(w.buffer[w.bufferIndex:], p)
	w.bufferIndex += n
	w.cond.L.Unlock()

	select {
	case w.writeNotify <- struct{}{}:
		if len(p) > n {
			runtime.Gosched()
			m, err := w.Write(p[n:])
			return n + m, err
		}
		return n, nil
	default:
		if len(p) > n {
			w.cond.L.Lock()
			w.cond.Wait()
			w.cond.L.Unlock()
			m, err := w.Write(p[n:])
			return n + m, err
		}
		return n, nil
	}
}
