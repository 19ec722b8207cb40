/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/srecrew/agents/agenttrace"

// ToolCall represents a single tool invocation within a trace
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	trace     *Trace
	span      oteltrace.Span
}

// Trace represents one pipeline step from prompt to final output
type Trace struct {
	ID           string      `json:"id"`
	Step         string      `json:"step"`
	InputPrompt  string      `json:"input_prompt"`
	Run          RunContext  `json:"run"`
	ToolCalls    []*ToolCall `json:"tool_calls"`
	Output       string      `json:"output"`
	Error        error       `json:"error,omitempty"`
	Model        string      `json:"model,omitempty"`
	InputTokens  int64       `json:"input_tokens"`
	OutputTokens int64       `json:"output_tokens"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	tracer       Tracer
	mu           sync.Mutex
	ctx          context.Context
	span         oteltrace.Span
}

// StartTrace opens a trace for the named step using the tracer in ctx.
func StartTrace(ctx context.Context, step, prompt string) *Trace {
	rc := GetRunContext(ctx)

	tr := otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "crew.step", oteltrace.WithAttributes(
		attribute.String("step", step),
		attribute.String("repository", rc.Repository),
		attribute.Int("issue_number", rc.IssueNumber),
		attribute.Int("attempt", rc.Attempt),
	))

	return &Trace{
		ID:          generateTraceID(),
		Step:        step,
		InputPrompt: prompt,
		Run:         rc,
		ToolCalls:   []*ToolCall{},
		StartTime:   time.Now(),
		tracer:      TracerFromContext(ctx),
		ctx:         ctx,
		span:        span,
	}
}

// StartToolCall starts a new tool call and returns it
func (t *Trace) StartToolCall(id, name string, params map[string]any) *ToolCall {
	tr := otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
	_, span := tr.Start(t.ctx, "crew.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))

	return &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		span:      span,
	}
}

// RecordTokenUsage accumulates model token usage on the trace and its span.
func (t *Trace) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Model = model
	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", t.InputTokens),
			attribute.Int64("tokens.output", t.OutputTokens),
			attribute.Int64("tokens.total", t.InputTokens+t.OutputTokens),
		)
	}
}

// TotalTokens returns the tokens consumed so far by the step.
func (t *Trace) TotalTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.InputTokens + t.OutputTokens
}

// Complete marks the tool call as complete and adds it to the parent trace.
// Tool results are text; results that start with "Error" mark the span failed.
func (tc *ToolCall) Complete(result string) {
	tc.Result = result
	tc.EndTime = time.Now()

	if tc.span != nil {
		if strings.HasPrefix(result, "Error") {
			tc.span.SetStatus(codes.Error, result)
		} else {
			tc.span.SetStatus(codes.Ok, "")
		}
		tc.span.End()
	}

	tc.trace.mu.Lock()
	defer tc.trace.mu.Unlock()
	tc.trace.ToolCalls = append(tc.trace.ToolCalls, tc)
}

// Duration returns the duration of the tool call
func (tc *ToolCall) Duration() time.Duration {
	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete marks the trace as complete and hands it to the tracer.
func (t *Trace) Complete(output string, err error) {
	t.mu.Lock()
	t.Output = output
	t.Error = err
	t.EndTime = time.Now()
	span := t.span
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	t.tracer.RecordTrace(t)
}

// Duration returns the total duration of the trace
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String returns a structured representation of the trace
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s (%s) ===\n", t.ID, t.Step)
	fmt.Fprintf(&sb, "Prompt: %q\n", truncate(t.InputPrompt, 200))
	if !t.EndTime.IsZero() {
		fmt.Fprintf(&sb, "Duration: %v\n", t.EndTime.Sub(t.StartTime))
	}
	fmt.Fprintf(&sb, "Tokens: %d in, %d out\n", t.InputTokens, t.OutputTokens)

	if len(t.ToolCalls) > 0 {
		fmt.Fprintf(&sb, "\nTool Calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			fmt.Fprintf(&sb, "  [%d] %s (ID: %s)\n", i+1, tc.Name, tc.ID)
			for k, v := range tc.Params {
				fmt.Fprintf(&sb, "        %s: %v\n", k, v)
			}
			fmt.Fprintf(&sb, "      Result: %s\n", truncate(tc.Result, 200))
		}
	} else {
		sb.WriteString("\nNo tool calls\n")
	}

	sb.WriteString("\nCompletion:\n")
	if t.Error != nil {
		fmt.Fprintf(&sb, "  Error: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "  Output: %s\n", truncate(t.Output, 500))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// generateTraceID generates a unique trace ID
func generateTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102-150405.000000")
	}
	// Format: YYYYMMDD-HHMMSS-RRRR where RRRR is random hex
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(b))
}
