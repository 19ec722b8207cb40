/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package geminillm adapts the Gemini API to llm.Client.
package geminillm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/toolcall"
	"google.golang.org/genai"
)

// Content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

type client struct {
	sdk   *genai.Client
	model string
}

var _ llm.Client = (*client)(nil)

// New creates a client for a gemini-* model using the Gemini API backend.
func New(ctx context.Context, apiKey, model string) (llm.Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if !strings.HasPrefix(model, "gemini-") {
		return nil, fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", model)
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &client{sdk: sdk, model: model}, nil
}

func (c *client) Model() string { return c.model }

func (c *client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents(req.Messages), config(req))
	if err != nil {
		if isRateLimited(err) {
			return llm.Response{}, llm.RateLimited(err)
		}
		return llm.Response{}, fmt.Errorf("generate content: %w", err)
	}

	var out llm.Response
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, errors.New("no candidates in response")
	}
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			out.ToolCalls = append(out.ToolCalls, toolcall.Call{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		case part.Text != "" && !part.Thought:
			text = append(text, part.Text)
		}
	}
	out.Text = strings.Join(text, "")
	return out, nil
}

func config(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			decls = append(decls, declaration(def))
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func declaration(def toolcall.Definition) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(def.Parameters)),
	}
	for _, p := range def.Parameters {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  schema,
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func contents(in []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(in))
	for _, m := range in {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, &genai.Content{Role: roleUser, Parts: []*genai.Part{{Text: m.Text}}})
		case llm.RoleAssistant:
			var parts []*genai.Part
			if m.Text != "" {
				parts = append(parts, &genai.Part{Text: m.Text})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args}})
			}
			out = append(out, &genai.Content{Role: roleModel, Parts: parts})
		case llm.RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.ToolName,
				Response: map[string]any{"output": m.Text},
			}}
			// Answers to one model turn share a single user turn.
			if n := len(out); n > 0 && out[n-1].Role == roleUser && out[n-1].Parts[0].FunctionResponse != nil {
				out[n-1].Parts = append(out[n-1].Parts, part)
				continue
			}
			out = append(out, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})
		}
	}
	return out
}

// isRateLimited reports quota exhaustion, which Gemini signals with 429 and
// RESOURCE_EXHAUSTED rather than a rate_limit error type.
func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "Resource exhausted")
}
