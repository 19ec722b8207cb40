/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// RunContext identifies the run a step belongs to. It is used to label spans
// and metrics.
type RunContext struct {
	Repository  string `json:"repository,omitempty"`   // "owner/name"
	IssueNumber int    `json:"issue_number,omitempty"` // Issue being resolved
	Attempt     int    `json:"attempt,omitempty"`      // 1-based attempt within the run
}

// EnrichAttributes adds run attributes to the provided base attributes.
//
// Only bounded labels are added: the issue number would create one time series
// per issue, so it stays on spans and out of metrics.
func (r RunContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+2)
	copy(attrs, baseAttrs)

	if r.Repository != "" {
		attrs = append(attrs, attribute.String("repository", r.Repository))
	}
	attrs = append(attrs, attribute.Int("attempt", r.Attempt))
	return attrs
}

type contextKey string

const (
	runContextKey contextKey = "run_context"
	tracerKey     contextKey = "tracer"
)

// WithRunContext adds run metadata to the Go context.
func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	return context.WithValue(ctx, runContextKey, rc)
}

// GetRunContext retrieves run metadata from the Go context.
func GetRunContext(ctx context.Context) RunContext {
	if rc, ok := ctx.Value(runContextKey).(RunContext); ok {
		return rc
	}
	return RunContext{}
}

// WithTracer installs the tracer that receives completed traces.
func WithTracer(ctx context.Context, tracer Tracer) context.Context {
	return context.WithValue(ctx, tracerKey, tracer)
}

// TracerFromContext returns the installed tracer, or the default clog tracer.
func TracerFromContext(ctx context.Context) Tracer {
	if t, ok := ctx.Value(tracerKey).(Tracer); ok {
		return t
	}
	return NewDefaultTracer(ctx)
}
