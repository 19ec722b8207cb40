/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned by Extract when the text holds no JSON candidate.
var ErrNoJSON = errors.New("no JSON found in response")

// ExtractJSON returns the most likely JSON payload in responseText, or an
// empty string if there is none.
func ExtractJSON(responseText string) string {
	if body, ok := fenced(responseText, "```json"); ok {
		return body
	}
	if body, ok := fenced(responseText, "```"); ok {
		return body
	}

	text := strings.TrimSpace(responseText)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

// fenced returns the body of the first block opened by a line equal to open
// and closed by a line equal to ```.
func fenced(text, open string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != open {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				return strings.TrimSpace(strings.Join(lines[i+1:j], "\n")), true
			}
		}
		return "", false
	}
	return "", false
}

// Extract extracts JSON content from a text response and unmarshals it into T.
func Extract[T any](responseText string) (T, error) {
	var result T

	content := ExtractJSON(responseText)
	if content == "" {
		return result, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return result, err
	}
	return result, nil
}
