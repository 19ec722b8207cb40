/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metaagent selects the model backend for the crew.
//
// The model name determines which provider implementation is used:
//   - Models starting with "claude-" use Anthropic's SDK
//   - Models starting with "gemini-" use Google's Generative AI SDK
//   - Anything else is sent to an OpenAI-compatible endpoint (Groq by default)
//
// Usage:
//
//	client, err := metaagent.New(ctx, metaagent.Config{
//	    Model:  "llama-3.1-8b-instant",
//	    APIKey: os.Getenv("GROQ_API_KEY"),
//	})
package metaagent
