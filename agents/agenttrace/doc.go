/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records what happens while a pipeline step runs.

# Overview

  - RunContext: the repository, issue and attempt a step belongs to
  - Trace: one step from prompt to final output, backed by an OpenTelemetry span
  - ToolCall: a single tool invocation within a step, with its own child span
  - Tracer: receives every completed Trace

# Usage

Attach run metadata and a tracer, then trace each step:

	ctx = agenttrace.WithRunContext(ctx, agenttrace.RunContext{
		Repository:  "octo/hello",
		IssueNumber: 42,
		Attempt:     1,
	})
	ctx = agenttrace.WithTracer(ctx, agenttrace.ByCode(func(t *agenttrace.Trace) {
		log.Printf("step %s took %v", t.Step, t.Duration())
	}))

	trace := agenttrace.StartTrace(ctx, "analyze", prompt)
	tc := trace.StartToolCall("call_1", "fetch_github_issue", args)
	tc.Complete(text)
	trace.Complete(output, nil)

Without an explicit tracer, completed traces are logged through clog.
*/
package agenttrace
