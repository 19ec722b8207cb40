/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/metaagent"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

const pingPrompt = "Reply with exactly one word: pong"

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, envconfig.OsLookuper())
			if err != nil {
				return err
			}
			client, err := metaagent.New(ctx, cfg.agentConfig())
			if err != nil {
				return err
			}
			reply, err := ping(ctx, client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s replied: %s\n", client.Model(), reply)
			return nil
		},
	}
}

func ping(ctx context.Context, client llm.Client) (string, error) {
	resp, err := client.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.UserMessage(pingPrompt)},
		MaxTokens: 16,
	})
	if err != nil {
		return "", fmt.Errorf("pinging %s: %w", client.Model(), err)
	}
	return strings.TrimSpace(resp.Text), nil
}
