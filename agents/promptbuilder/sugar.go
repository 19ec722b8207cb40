/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Helpers that panic on error, for package-level templates known to be valid.

// Must panics if err is non-nil.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNewPrompt is Must(NewPrompt(template)).
func MustNewPrompt(template stringLiteral) *Prompt {
	return Must(NewPrompt(template))
}

// MustBindText is Must(p.BindText(name, value)).
func (p *Prompt) MustBindText(name, value string) *Prompt {
	return Must(p.BindText(name, value))
}

// MustBindXML is Must(p.BindXML(name, data)).
func (p *Prompt) MustBindXML(name string, data any) *Prompt {
	return Must(p.BindXML(name, data))
}
