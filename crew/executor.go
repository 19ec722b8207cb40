/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/srecrew/agents/agenttrace"
	"chainguard.dev/srecrew/agents/executor/retry"
	"chainguard.dev/srecrew/agents/metrics"
	"github.com/chainguard-dev/clog"
)

// Executor runs the pipeline with rate-limit-aware retries.
type Executor struct {
	runner *Runner
	retry  retry.Config
	genai  *metrics.GenAI
}

// Option configures an Executor.
type Option func(*Executor) error

// WithMaxAttempts sets the default attempt budget used by Run.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be at least 1, got %d", n)
		}
		e.retry.MaxAttempts = n
		return nil
	}
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Executor) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		e.retry = cfg
		return nil
	}
}

// WithSleep replaces how the executor waits between attempts.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Executor) error {
		if sleep == nil {
			return errors.New("sleep cannot be nil")
		}
		e.retry.Sleep = sleep
		return nil
	}
}

// NewExecutor wraps runner with the default retry policy.
func NewExecutor(runner *Runner, opts ...Option) (*Executor, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	e := &Executor{
		runner: runner,
		retry:  retry.DefaultConfig(),
		genai:  metrics.NewGenAI("chainguard.dev/srecrew"),
	}
	e.genai.SetAttributeEnricher(metrics.RunEnricher)
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return e, nil
}

// Run resolves issue in repository with the default attempt budget.
func (e *Executor) Run(ctx context.Context, repository string, issue int) (*RunResult, error) {
	return e.Execute(ctx, Request{Repository: repository, IssueNumber: issue}, e.retry.MaxAttempts)
}

// Execute runs the pipeline for req, making at most maxAttempts attempts.
// Rate-limit faults are retried after a backoff; any other fault is returned
// at once. When every attempt hits a rate limit the error is a
// *retry.ExhaustedRetriesError wrapping the last fault.
func (e *Executor) Execute(ctx context.Context, req Request, maxAttempts int) (*RunResult, error) {
	if err := req.Validate(); err != nil {
		runCounter.WithLabelValues(outcomeInvalid).Inc()
		return nil, err
	}
	steps, err := BuildPipeline(req.Repository, req.IssueNumber, WithGuidance(req.Guidance))
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	cfg := e.retry
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = retry.SleepContext
	}
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		backoffSeconds.Add(d.Seconds())
		return sleep(ctx, d)
	}

	log := clog.FromContext(ctx).With("repository", req.Repository).With("issue", req.IssueNumber)
	log.Infof("Resolving issue #%d in %s with %s", req.IssueNumber, req.Repository, e.runner.Model())

	res, err := retry.Do(ctx, cfg, "crew", func(attempt int) (*RunResult, error) {
		actx := agenttrace.WithRunContext(ctx, agenttrace.RunContext{
			Repository:  req.Repository,
			IssueNumber: req.IssueNumber,
			Attempt:     attempt,
		})
		attemptCounter.Inc()

		start := time.Now()
		out, err := e.runner.Run(actx, steps)
		if err != nil {
			if retry.IsRateLimit(err) {
				rateLimitCounter.Inc()
				e.genai.RecordRateLimit(actx, e.runner.Model())
			}
			return nil, err
		}
		return newRunResult(out, time.Since(start)), nil
	})

	var exhausted *retry.ExhaustedRetriesError
	switch {
	case errors.As(err, &exhausted):
		runCounter.WithLabelValues(outcomeExhausted).Inc()
		return nil, err
	case err != nil:
		runCounter.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	case res.Success:
		runCounter.WithLabelValues(outcomeSuccess).Inc()
	default:
		runCounter.WithLabelValues(outcomeUnsuccessful).Inc()
	}
	tokenCounter.Add(float64(res.TokenUsage))
	log.With("success", res.Success).With("tokens", res.TokenUsage).
		Infof("Crew finished in %.2fs", res.ElapsedSeconds())
	return res, nil
}
