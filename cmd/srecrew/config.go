/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/srecrew/agents/llm/openaillm"
	"chainguard.dev/srecrew/agents/metaagent"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	GitHubToken string `env:"GITHUB_TOKEN"`

	Model           string `env:"MODEL,default=llama-3.1-8b-instant"`
	LLMAPIKey       string `env:"LLM_API_KEY"`
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`

	Temperature float64 `env:"TEMPERATURE,default=0.2"`
	MaxTokens   int64   `env:"MAX_TOKENS,default=512"`
	MaxAttempts int     `env:"MAX_ATTEMPTS,default=3"`
	// MaxRPM caps model requests per minute. Zero disables pacing.
	MaxRPM int `env:"MAX_RPM,default=1"`

	LogLines     int           `env:"LOG_LINES,default=60"`
	PollInterval time.Duration `env:"POLL_INTERVAL,default=500ms"`
	MetricsAddr  string        `env:"METRICS_ADDR"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.MaxRPM < 0 {
		return nil, fmt.Errorf("MAX_RPM must not be negative, got %d", cfg.MaxRPM)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %v", cfg.PollInterval)
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = openaillm.GroqBaseURL
	}
	return &cfg, nil
}

// validateRun checks what only the run command needs.
func (c *config) validateRun() error {
	if c.GitHubToken == "" {
		return errors.New("GITHUB_TOKEN is required")
	}
	return nil
}

// apiKey returns the OpenAI-compatible key, preferring LLM_API_KEY.
func (c *config) apiKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	return c.GroqAPIKey
}

func (c *config) agentConfig() metaagent.Config {
	return metaagent.Config{
		Model:           c.Model,
		APIKey:          c.apiKey(),
		BaseURL:         c.LLMBaseURL,
		AnthropicAPIKey: c.AnthropicAPIKey,
		GeminiAPIKey:    c.GeminiAPIKey,
	}
}
