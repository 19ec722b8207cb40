/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/llm/claudellm"
	"chainguard.dev/srecrew/agents/llm/geminillm"
	"chainguard.dev/srecrew/agents/llm/openaillm"
)

// New creates the llm.Client for config.Model.
func New(ctx context.Context, config Config) (llm.Client, error) {
	if config.Model == "" {
		return nil, errors.New("model is required")
	}
	modelLower := strings.ToLower(config.Model)

	switch {
	case strings.HasPrefix(modelLower, "claude-"):
		if config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("model %s requires ANTHROPIC_API_KEY", config.Model)
		}
		return claudellm.New(config.AnthropicAPIKey, config.Model)
	case strings.HasPrefix(modelLower, "gemini-"):
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("model %s requires GEMINI_API_KEY", config.Model)
		}
		return geminillm.New(ctx, config.GeminiAPIKey, config.Model)
	default:
		if config.APIKey == "" {
			return nil, fmt.Errorf("model %s requires an OpenAI-compatible API key", config.Model)
		}
		var opts []openaillm.Option
		if config.BaseURL != "" {
			opts = append(opts, openaillm.WithBaseURL(config.BaseURL))
		}
		return openaillm.New(config.APIKey, config.Model, opts...)
	}
}
