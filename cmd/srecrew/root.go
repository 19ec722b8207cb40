/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
}

// level is the level of the log lines streamed to the terminal.
func (o *rootOptions) level() slog.Level {
	if o.verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "srecrew",
		Short: "Resolve a GitHub issue with a crew of model-backed roles",
		Long: `srecrew analyzes a GitHub issue, proposes a fix, reviews it for security
problems, and opens a pull request, with one model-backed role per step.

Attempts that fail on a backend rate limit are retried after waiting out the
quota window.

Environment:
  GITHUB_TOKEN       token used to read issues and open pull requests (required for run)
  MODEL              model name (default llama-3.1-8b-instant); claude-* and gemini-*
                     select Anthropic and Gemini
  LLM_API_KEY        key for the OpenAI-compatible backend (GROQ_API_KEY also accepted)
  LLM_BASE_URL       OpenAI-compatible endpoint (default Groq)
  ANTHROPIC_API_KEY  key for claude-* models
  GEMINI_API_KEY     key for gemini-* models
  MAX_ATTEMPTS       attempts per run (default 3)
  MAX_RPM            model requests per minute (default 1, 0 disables pacing)
  METRICS_ADDR       serve Prometheus metrics on this address when set

Examples:
  # Resolve issue 42
  srecrew run --repo octo/hello --issue 42

  # Give the crew a hint and offer another run if no PR was created
  srecrew run --repo octo/hello --issue 42 --hint "the bug is in auth.py" --human-review

  # Check that the model answers
  srecrew ping`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Stream debug logs, including every GitHub API call")

	cmd.AddCommand(newRunCommand(opts), newPingCommand())
	return cmd
}
