/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label.
const (
	outcomeSuccess      = "success"
	outcomeUnsuccessful = "unsuccessful"
	outcomeExhausted    = "exhausted"
	outcomeFailed       = "failed"
	outcomeInvalid      = "invalid"
)

var (
	runCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srecrew_runs_total",
			Help: "Total number of crew runs by outcome",
		},
		[]string{"outcome"},
	)

	attemptCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "srecrew_attempts_total",
			Help: "Total number of pipeline attempts, including retries",
		},
	)

	rateLimitCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "srecrew_rate_limit_faults_total",
			Help: "Total number of attempts that ended on a backend rate limit",
		},
	)

	backoffSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "srecrew_backoff_seconds_total",
			Help: "Total seconds spent waiting out rate limits",
		},
	)

	tokenCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "srecrew_tokens_total",
			Help: "Total tokens consumed by successful attempts",
		},
	)
)
