/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var rolesYAML []byte

// Role describes the persona a step runs as.
type Role struct {
	Title     string `yaml:"title"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
	MaxIter   int    `yaml:"max_iter"`
}

// Role keys used by the pipeline.
const (
	IssueAnalyzer    = "issue_analyzer"
	CodeSuggester    = "code_suggester"
	SecurityReviewer = "security_reviewer"
	PRDrafter        = "pr_drafter"
)

// DefaultRoles returns the built-in role catalogue.
func DefaultRoles() (map[string]Role, error) {
	return ParseRoles(rolesYAML)
}

// ParseRoles decodes a role catalogue and checks that every role the
// pipeline uses is present and usable.
func ParseRoles(data []byte) (map[string]Role, error) {
	var roles map[string]Role
	if err := yaml.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("decoding roles: %w", err)
	}
	for _, key := range []string{IssueAnalyzer, CodeSuggester, SecurityReviewer, PRDrafter} {
		r, ok := roles[key]
		if !ok {
			return nil, fmt.Errorf("role %q is not defined", key)
		}
		if r.Title == "" {
			return nil, fmt.Errorf("role %q has no title", key)
		}
		if r.MaxIter < 1 {
			return nil, fmt.Errorf("role %q: max_iter must be at least 1, got %d", key, r.MaxIter)
		}
	}
	return roles, nil
}
