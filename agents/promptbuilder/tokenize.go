/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// segment is either a run of literal text or a placeholder reference.
type segment struct {
	text string
	name string
}

func (s segment) placeholder() bool {
	return s.name != ""
}

// tokenize splits a template into literal and placeholder segments.
func tokenize(template string) ([]segment, error) {
	var segments []segment
	for len(template) > 0 {
		start := strings.Index(template, "{{")
		if start == -1 {
			segments = append(segments, segment{text: template})
			break
		}
		if start > 0 {
			segments = append(segments, segment{text: template[:start]})
		}

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			return nil, errors.New("unclosed placeholder: missing '}}'")
		}
		end += start

		name := strings.TrimSpace(template[start+2 : end])
		if !isIdentifier(name) {
			return nil, fmt.Errorf("invalid placeholder identifier %q", name)
		}
		segments = append(segments, segment{name: name})
		template = template[end+2:]
	}
	return segments, nil
}

// isIdentifier reports whether s starts with a letter and continues with
// letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
