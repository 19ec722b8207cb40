/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"chainguard.dev/srecrew/agents/llm"
)

// Turn is one scripted reply: either a response or an error.
type Turn struct {
	Response llm.Response
	Err      error
}

// Client replays scripted turns in order and records every request.
type Client struct {
	// Name is returned by Model.
	Name string

	mu       sync.Mutex
	script   []Turn
	requests []llm.Request
}

var _ llm.Client = (*Client)(nil)

// New returns a client that replays turns in order.
func New(turns ...Turn) *Client {
	return &Client{Name: "scripted", script: turns}
}

// Model implements llm.Client.
func (c *Client) Model() string { return c.Name }

// Complete implements llm.Client.
func (c *Client) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if len(c.script) == 0 {
		return llm.Response{}, fmt.Errorf("llmtest: no scripted turn for request %d", len(c.requests))
	}
	turn := c.script[0]
	c.script = c.script[1:]
	return turn.Response, turn.Err
}

// Requests returns a copy of the requests received so far.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.requests...)
}
