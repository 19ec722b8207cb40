/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider-independent tools that a language model
// can invoke during a pipeline step.
//
// A Tool pairs a Definition (name, description, parameters) with a Handler
// that always answers with text. Handlers never return errors: failures are
// reported to the model as text so that the conversation can continue.
//
//	tool := toolcall.Tool{
//		Def: toolcall.Definition{
//			Name:        "fetch_github_issue",
//			Description: "Fetch a GitHub issue by repository and number.",
//			Parameters: []toolcall.Parameter{
//				{Name: "repo_name", Type: "string", Required: true},
//				{Name: "issue_number", Type: "integer", Required: true},
//			},
//		},
//		Handler: func(ctx context.Context, call toolcall.Call) string { ... },
//	}
//
// Conversion to SDK-specific declarations happens in the llm adapters.
package toolcall
