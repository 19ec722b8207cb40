/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llm defines the provider-independent chat completion boundary used
// by the crew runner.
package llm

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/srecrew/agents/toolcall"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role
	Text string
	// ToolCalls are the calls requested by an assistant turn.
	ToolCalls []toolcall.Call
	// ToolCallID and ToolName link a tool turn to the call it answers.
	ToolCallID string
	ToolName   string
}

// UserMessage returns a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AssistantMessage returns an assistant turn, optionally carrying tool calls.
func AssistantMessage(text string, calls ...toolcall.Call) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

// ToolMessage returns the answer to a tool call.
func ToolMessage(call toolcall.Call, result string) Message {
	return Message{Role: RoleTool, Text: result, ToolCallID: call.ID, ToolName: call.Name}
}

// Request is a single chat completion request.
type Request struct {
	System      string
	Messages    []Message
	Tools       []toolcall.Definition
	MaxTokens   int64
	Temperature float64
}

// Usage reports the tokens consumed by one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 { return u.InputTokens + u.OutputTokens }

// Response is the model's answer: final text, requested tool calls, or both.
type Response struct {
	Text      string
	ToolCalls []toolcall.Call
	Usage     Usage
}

// Client completes chat requests against one model.
type Client interface {
	// Model returns the model identifier used for requests.
	Model() string
	// Complete sends req and returns the model's answer.
	Complete(ctx context.Context, req Request) (Response, error)
}

// ErrRateLimited marks backend faults caused by request-rate or token quotas.
// Its text contains the "rate_limit" marker the retry policy recognises.
var ErrRateLimited = errors.New("rate_limit")

// RateLimited wraps a provider fault so that it is classified as a rate limit
// while keeping the provider's message, including any "try again in" hint.
func RateLimited(err error) error {
	return fmt.Errorf("%w: %w", ErrRateLimited, err)
}
