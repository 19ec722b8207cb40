/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudellm adapts the Anthropic Messages API to llm.Client.
package claudellm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Option configures the client.
type Option func(*client) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *client) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		c.opts = append(c.opts, option.WithBaseURL(url))
		return nil
	}
}

type client struct {
	sdk   anthropic.Client
	model string
	opts  []option.RequestOption
}

var _ llm.Client = (*client)(nil)

// New creates a client for a claude-* model.
func New(apiKey, model string, opts ...Option) (llm.Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if !strings.HasPrefix(model, "claude-") {
		return nil, fmt.Errorf("model %q does not appear to be a Claude model (expected claude-* format)", model)
	}
	c := &client{
		model: model,
		opts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	c.sdk = anthropic.NewClient(c.opts...)
	return c, nil
}

func (c *client) Model() string { return c.model }

func (c *client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Messages:    messages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, def := range req.Tools {
		schema := def.JSONSchema()
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   schema["required"].([]string),
				},
			},
		})
	}

	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return llm.Response{}, llm.RateLimited(err)
		}
		return llm.Response{}, fmt.Errorf("messages: %w", err)
	}

	out := llm.Response{
		Usage: llm.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	var text []string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return out, fmt.Errorf("decoding %s input: %w", block.Name, err)
				}
			}
			out.ToolCalls = append(out.ToolCalls, toolcall.Call{ID: block.ID, Name: block.Name, Args: args})
		}
	}
	out.Text = strings.Join(text, "\n")
	return out, nil
}

// messages converts the conversation, folding consecutive tool answers into a
// single user turn as the Messages API requires.
func messages(in []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(in))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, m := range in {
		switch m.Role {
		case llm.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Text, strings.HasPrefix(m.Text, "Error")))
		case llm.RoleUser:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case llm.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, call := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Args, call.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()
	return out
}
