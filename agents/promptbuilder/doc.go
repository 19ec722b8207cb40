/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder renders the instruction and system prompts used by the
crew pipeline.

Templates are literal strings containing {{name}} placeholders. They are
tokenized once when the prompt is created, so a value bound into one
placeholder is never re-scanned for further placeholders:

	p := promptbuilder.MustNewPrompt(`Fetch issue #{{issue}} from '{{repository}}'.`)
	p = p.MustBindText("issue", "42").MustBindText("repository", "octo/hello")
	text, err := p.Build()

Structured values (for example the outputs of upstream steps) are bound with
BindXML, BindJSON or BindYAML, which marshal the value with the matching
encoder. Every Bind method returns a new Prompt; the receiver is unchanged.
*/
package promptbuilder
