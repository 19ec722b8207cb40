/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// Tracer receives completed traces.
type Tracer interface {
	RecordTrace(*Trace)
}

// ByCode adapts a function into a Tracer.
type ByCode func(*Trace)

// RecordTrace implements Tracer.
func (f ByCode) RecordTrace(t *Trace) { f(t) }

// NewDefaultTracer creates a tracer that logs completed traces at debug level.
func NewDefaultTracer(ctx context.Context) Tracer {
	logger := clog.FromContext(ctx)

	return ByCode(func(trace *Trace) {
		logger.With(
			"trace_id", trace.ID,
			"step", trace.Step,
			"duration_ms", trace.Duration().Milliseconds(),
			"tool_calls", len(trace.ToolCalls),
		).Debug("Step trace completed", "trace", trace.String())
	})
}
