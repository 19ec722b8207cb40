/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package crew resolves a GitHub issue with four role-bound model steps run
// in a fixed order: analyze, suggest_fix, security_review and open_pr.
//
// Each step sees the output of the step before it. The whole pipeline is
// one attempt; the Executor retries attempts that fail on backend rate
// limits, waiting out the quota window between them:
//
//	runner, err := crew.NewRunner(client, tracker.Tools())
//	executor, err := crew.NewExecutor(runner)
//	res, err := executor.Run(ctx, "octo/hello", 42)
//
// A retried attempt replays every step, so side effects of the final step
// (branch, pull request, comment) may be attempted more than once.
package crew
