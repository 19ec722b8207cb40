/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package logstream

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultBuffer is the channel capacity used when New is given zero.
const DefaultBuffer = 1024

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("log stream closed")
	// ErrTimeout is returned by Poll when no event arrived in time.
	ErrTimeout = errors.New("no log event before timeout")
	// ErrDrained is returned by Poll once the Done event has been consumed.
	ErrDrained = errors.New("log stream drained")
)

// Event is a single log line, or the terminal Done marker.
type Event struct {
	Text string
	Done bool
}

// Stream is a FIFO of log lines with a single terminal Done event.
// Writers block when the buffer is full until the observer catches up.
type Stream struct {
	ch chan Event

	mu      sync.Mutex
	partial strings.Builder
	closed  bool
}

// New returns a stream with the given buffer capacity.
func New(buffer int) *Stream {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Stream{ch: make(chan Event, buffer)}
}

// Write implements io.Writer. Complete lines are queued in order; a trailing
// partial line is held until its newline or Close. Whitespace-only lines are
// dropped.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	rest := string(p)
	for {
		line, after, found := strings.Cut(rest, "\n")
		if !found {
			s.partial.WriteString(line)
			break
		}
		s.partial.WriteString(line)
		s.emit(s.partial.String())
		s.partial.Reset()
		rest = after
	}
	return len(p), nil
}

// emit queues line unless it is blank. Callers hold s.mu.
func (s *Stream) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	s.ch <- Event{Text: line}
}

// Close flushes any partial line, queues the Done event and closes the
// channel. Only the first call has an effect.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.emit(s.partial.String())
	s.partial.Reset()
	s.ch <- Event{Done: true}
	close(s.ch)
	return nil
}

// Poll waits up to timeout for the next event.
func (s *Stream) Poll(timeout time.Duration) (Event, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, ErrDrained
		}
		return ev, nil
	case <-t.C:
		return Event{}, ErrTimeout
	}
}
