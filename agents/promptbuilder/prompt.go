/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// stringLiteral only accepts untyped string constants, which keeps runtime
// data out of template text.
type stringLiteral string

// Prompt is an immutable template with named placeholders.
type Prompt struct {
	segments []segment
	bound    map[string]binding
}

// NewPrompt parses a template literal.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	segments, err := tokenize(string(template))
	if err != nil {
		return nil, err
	}
	return &Prompt{segments: segments, bound: map[string]binding{}}, nil
}

// Placeholders returns the sorted, de-duplicated placeholder names.
func (p *Prompt) Placeholders() []string {
	var names []string
	for _, s := range p.segments {
		if s.placeholder() && !slices.Contains(names, s.name) {
			names = append(names, s.name)
		}
	}
	slices.Sort(names)
	return names
}

// BindText binds a plain string verbatim.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, textBinding(value))
}

// BindXML binds data marshaled with encoding/xml.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, xmlBinding{data: data})
}

// BindJSON binds data marshaled as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, jsonBinding{data: data})
}

// BindYAML binds data marshaled as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, yamlBinding{data: data})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	if !slices.Contains(p.Placeholders(), name) {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, ok := p.bound[name]; ok {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := &Prompt{segments: p.segments, bound: maps.Clone(p.bound)}
	next.bound[name] = b
	return next, nil
}

// Build renders the prompt. Every placeholder must be bound.
func (p *Prompt) Build() (string, error) {
	rendered := make(map[string]string, len(p.bound))
	for name, b := range p.bound {
		v, err := b.render()
		if err != nil {
			return "", fmt.Errorf("rendering %q: %w", name, err)
		}
		rendered[name] = v
	}

	var sb strings.Builder
	for _, s := range p.segments {
		if !s.placeholder() {
			sb.WriteString(s.text)
			continue
		}
		v, ok := rendered[s.name]
		if !ok {
			return "", fmt.Errorf("unbound placeholder: %s", s.name)
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}
