/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"chainguard.dev/srecrew/agents/toolcall/params"
)

// Call is a provider-independent representation of a tool call.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Definition describes a tool's schema (name, description, parameters).
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number"
	Description string
	Required    bool
}

// JSONSchema renders the parameters as a JSON schema object.
func (d Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Tool defines a tool once with a single handler that works with any provider.
type Tool struct {
	Def     Definition
	Handler func(ctx context.Context, call Call) string
}

// Set is a collection of tools keyed by name.
type Set map[string]Tool

// NewSet builds a Set, rejecting duplicate names.
func NewSet(tools ...Tool) (Set, error) {
	s := make(Set, len(tools))
	for _, t := range tools {
		if _, dup := s[t.Def.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Def.Name)
		}
		s[t.Def.Name] = t
	}
	return s, nil
}

// Select returns the subset of s with the given names.
func (s Set) Select(names ...string) (Set, error) {
	out := make(Set, len(names))
	var missing []string
	for _, n := range names {
		t, ok := s[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out[n] = t
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown tools: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Definitions returns the tool definitions sorted by name.
func (s Set) Definitions() []Definition {
	defs := make([]Definition, 0, len(s))
	for _, name := range slices.Sorted(maps.Keys(s)) {
		defs = append(defs, s[name].Def)
	}
	return defs
}

// Invoke dispatches call to the named tool. Unknown tools are reported as text.
func (s Set) Invoke(ctx context.Context, call Call) string {
	t, ok := s[call.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}
	return t.Handler(ctx, call)
}

// Param extracts a required parameter from the tool call args. On failure the
// second value holds the text to return to the model.
func Param[T any](call Call, name string) (T, string) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		return v, params.Error("Error", err)
	}
	return v, ""
}

// OptionalParam extracts an optional parameter from the tool call args.
func OptionalParam[T any](call Call, name string, defaultValue T) (T, string) {
	v, err := params.ExtractOptional(call.Args, name, defaultValue)
	if err != nil {
		return v, params.Error("Error", err)
	}
	return v, ""
}
