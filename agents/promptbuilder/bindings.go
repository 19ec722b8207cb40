/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"gopkg.in/yaml.v3"
)

// binding produces the text substituted for one placeholder.
type binding interface {
	render() (string, error)
}

type textBinding string

func (t textBinding) render() (string, error) {
	return string(t), nil
}

type xmlBinding struct{ data any }

func (x xmlBinding) render() (string, error) {
	b, err := xml.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal XML: %w", err)
	}
	return string(b), nil
}

type jsonBinding struct{ data any }

func (j jsonBinding) render() (string, error) {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	return string(b), nil
}

type yamlBinding struct{ data any }

func (y yamlBinding) render() (string, error) {
	b, err := yaml.Marshal(y.data)
	if err != nil {
		return "", fmt.Errorf("marshal YAML: %w", err)
	}
	return string(b), nil
}
