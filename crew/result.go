/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"math"
	"strings"
	"time"
)

// SuccessMarker is the text whose presence in the final output marks a run
// as successful. It matches the create_pull_request tool's success answer.
const SuccessMarker = "PR created"

// RunResult is the outcome of a successful attempt.
type RunResult struct {
	// Raw is the final step's output.
	Raw string
	// StepOutputs holds every step's output in pipeline order.
	StepOutputs []StepOutput
	// TokenUsage is the total tokens consumed by the successful attempt.
	TokenUsage int64
	// Elapsed is the wall time of the successful attempt.
	Elapsed time.Duration
	// Success reports whether Raw contains SuccessMarker.
	Success bool
}

func newRunResult(o *Outcome, elapsed time.Duration) *RunResult {
	return &RunResult{
		Raw:         o.Raw,
		StepOutputs: o.Steps,
		TokenUsage:  o.Usage.Total(),
		Elapsed:     elapsed,
		Success:     strings.Contains(o.Raw, SuccessMarker),
	}
}

// ElapsedSeconds returns Elapsed in seconds rounded to two decimals.
func (r *RunResult) ElapsedSeconds() float64 {
	return math.Round(r.Elapsed.Seconds()*100) / 100
}
