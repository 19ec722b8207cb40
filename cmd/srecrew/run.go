/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"chainguard.dev/srecrew/agents/metaagent"
	"chainguard.dev/srecrew/crew"
	"chainguard.dev/srecrew/issuetracker"
	"chainguard.dev/srecrew/logstream"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

type runOptions struct {
	repo        string
	issue       int
	hint        string
	maxAttempts int
	humanReview bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve one GitHub issue",
		Long: `Run the crew against one issue: analyze it, suggest a fix, review the fix,
then open a pull request on branch sre-crew/fix-issue-<n> and comment on the
issue. Logs stream to the terminal while the crew works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, envconfig.OsLookuper())
			if err != nil {
				return err
			}
			if err := cfg.validateRun(); err != nil {
				return err
			}
			if opts.maxAttempts == 0 {
				opts.maxAttempts = cfg.MaxAttempts
			}

			ex, err := newExecutor(ctx, cfg)
			if err != nil {
				return err
			}
			defer serveMetrics(ctx, cfg.MetricsAddr)()

			return runLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts,
				func(ctx context.Context, req crew.Request) (*crew.RunResult, error) {
					return observe(ctx, cmd.OutOrStdout(), root.level(), cfg.LogLines, cfg.PollInterval,
						func(ctx context.Context) (*crew.RunResult, error) {
							return ex.Execute(ctx, req, opts.maxAttempts)
						})
				})
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "Repository in owner/name form")
	cmd.Flags().IntVar(&opts.issue, "issue", 0, "Issue number to resolve")
	cmd.Flags().StringVar(&opts.hint, "hint", "", "Guidance added to every step")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "Attempts before giving up on rate limits (default MAX_ATTEMPTS)")
	cmd.Flags().BoolVar(&opts.humanReview, "human-review", false, "Ask for guidance and run again when no PR was created")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("issue")
	return cmd
}

func newExecutor(ctx context.Context, cfg *config) (*crew.Executor, error) {
	tracker, err := issuetracker.NewClient(cfg.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	client, err := metaagent.New(ctx, cfg.agentConfig())
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	runner, err := crew.NewRunner(client, tracker.Tools(),
		crew.WithMaxTokens(cfg.MaxTokens),
		crew.WithTemperature(cfg.Temperature),
		crew.WithMaxRPM(cfg.MaxRPM))
	if err != nil {
		return nil, fmt.Errorf("creating runner: %w", err)
	}
	return crew.NewExecutor(runner, crew.WithMaxAttempts(cfg.MaxAttempts))
}

type executeFunc func(context.Context, crew.Request) (*crew.RunResult, error)

// runLoop executes the request and, with human review enabled, keeps asking
// for guidance and starting fresh runs until a PR is created or the operator
// gives up with an empty answer.
func runLoop(ctx context.Context, in io.Reader, out, errOut io.Writer, opts *runOptions, execute executeFunc) error {
	req := crew.Request{Repository: opts.repo, IssueNumber: opts.issue, Guidance: opts.hint}
	reader := bufio.NewReader(in)
	for {
		res, err := execute(ctx, req)
		if err != nil {
			printFailure(errOut, err)
			return err
		}
		printResult(out, res)
		if res.Success || !opts.humanReview {
			return nil
		}

		guidance, err := askGuidance(out, reader)
		if err != nil {
			return err
		}
		if guidance == "" {
			return nil
		}
		req.Guidance = guidance
	}
}

// observe runs fn in the background with its logs streamed into the
// terminal, and returns what fn returned.
func observe(ctx context.Context, w io.Writer, level slog.Level, lines int, interval time.Duration, fn func(context.Context) (*crew.RunResult, error)) (*crew.RunResult, error) {
	stream := logstream.New(logstream.DefaultBuffer)
	run := logstream.Start(ctx, stream, level, fn)
	display := logstream.NewDisplay(lines)
	logstream.Observe(stream, interval, display, printLatest(w))
	return run.Wait()
}

func askGuidance(w io.Writer, r *bufio.Reader) (string, error) {
	fmt.Fprint(w, "No PR was created. Guidance for another run (empty to stop): ")
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading guidance: %w", err)
	}
	return strings.TrimSpace(line), nil
}
