/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

// Config holds the credentials for every supported backend. Only the ones
// needed by Model have to be set.
type Config struct {
	// Model is the model identifier, e.g. "llama-3.1-8b-instant".
	Model string

	// APIKey and BaseURL configure the OpenAI-compatible backend.
	APIKey  string
	BaseURL string

	// AnthropicAPIKey is used for claude-* models.
	AnthropicAPIKey string

	// GeminiAPIKey is used for gemini-* models.
	GeminiAPIKey string
}
