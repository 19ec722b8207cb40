/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package logstream

import (
	"errors"
	"strings"
	"time"
)

// DefaultDisplayLines is the number of lines a Display keeps by default.
const DefaultDisplayLines = 60

// Display keeps the most recent lines received from a stream.
type Display struct {
	max   int
	lines []string
	total int
}

// NewDisplay returns a display bounded to max lines.
func NewDisplay(max int) *Display {
	if max <= 0 {
		max = DefaultDisplayLines
	}
	return &Display{max: max, lines: make([]string, 0, max)}
}

// Append adds a line, evicting the oldest one when full.
func (d *Display) Append(line string) {
	d.total++
	if len(d.lines) == d.max {
		copy(d.lines, d.lines[1:])
		d.lines = d.lines[:d.max-1]
	}
	d.lines = append(d.lines, line)
}

// Lines returns the retained lines, oldest first.
func (d *Display) Lines() []string {
	return append([]string(nil), d.lines...)
}

// Total returns how many lines were appended overall.
func (d *Display) Total() int { return d.total }

// String joins the retained lines with newlines.
func (d *Display) String() string {
	return strings.Join(d.lines, "\n")
}

// Observe polls s every interval until the Done event, appending each line to
// d and calling render after every change. render may be nil.
func Observe(s *Stream, interval time.Duration, d *Display, render func(*Display)) {
	for {
		ev, err := s.Poll(interval)
		switch {
		case errors.Is(err, ErrTimeout):
			continue
		case errors.Is(err, ErrDrained), ev.Done:
			return
		}
		d.Append(ev.Text)
		if render != nil {
			render(d)
		}
	}
}
