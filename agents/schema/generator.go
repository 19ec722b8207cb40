/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives JSON schemas from Go types so that the shape a step
// is expected to produce is written once, as a struct.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with project defaults.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator that inlines every definition and takes
// required fields from jsonschema tags.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	s := g.reflector.Reflect(v)
	// The draft URI only adds noise to prompts.
	s.Version = ""
	return s
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return NewGenerator().Reflect(&zero)
}

// Describe renders the schema of T as indented JSON for use in prompts.
func Describe[T any]() (string, error) {
	b, err := json.MarshalIndent(ReflectType[T](), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling schema: %w", err)
	}
	return string(b), nil
}
