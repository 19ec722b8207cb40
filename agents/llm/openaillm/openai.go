/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaillm adapts OpenAI-compatible chat completion endpoints, such
// as Groq, to llm.Client.
package openaillm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// Option configures the client.
type Option func(*client) error

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *client) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		c.opts = append(c.opts, option.WithBaseURL(url))
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.opts = append(c.opts, option.WithHTTPClient(hc))
		return nil
	}
}

type client struct {
	sdk   openai.Client
	model string
	opts  []option.RequestOption
}

var _ llm.Client = (*client)(nil)

// New creates a client for model authenticated with apiKey. The Groq endpoint
// is used unless WithBaseURL says otherwise.
func New(apiKey, model string, opts ...Option) (llm.Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}
	c := &client{
		model: model,
		opts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithBaseURL(GroqBaseURL),
			// Rate limits are handled by the crew retry policy.
			option.WithMaxRetries(0),
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	c.sdk = openai.NewClient(c.opts...)
	return c, nil
}

func (c *client) Model() string { return c.model }

func (c *client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages(req),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	for _, def := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  shared.FunctionParameters(def.JSONSchema()),
			},
		})
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return llm.Response{}, llm.RateLimited(err)
		}
		return llm.Response{}, fmt.Errorf("chat completion: %w", err)
	}

	out := llm.Response{
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out, errors.New("chat completion returned no choices")
	}
	msg := resp.Choices[0].Message
	out.Text = msg.Content
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				// Answered as tool text so the model can correct itself.
				clog.FromContext(ctx).With("tool", tc.Function.Name).Warnf("Malformed tool arguments: %v", err)
				args = map[string]any{}
			}
		}
		out.ToolCalls = append(out.ToolCalls, toolcall.Call{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return out, nil
}

func messages(req llm.Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, openai.UserMessage(m.Text))
		case llm.RoleTool:
			out = append(out, openai.ToolMessage(m.Text, m.ToolCallID))
		case llm.RoleAssistant:
			am := openai.ChatCompletionAssistantMessageParam{}
			if m.Text != "" {
				am.Content.OfString = openai.String(m.Text)
			}
			for _, call := range m.ToolCalls {
				args, _ := json.Marshal(call.Args)
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &am})
		}
	}
	return out
}
