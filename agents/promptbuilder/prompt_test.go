/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"chainguard.dev/srecrew/agents/promptbuilder"
	"github.com/google/go-cmp/cmp"
)

func TestNewPromptPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		want    []string
		wantErr string
	}{{
		name: "no placeholders",
	}, {
		name: "repeated placeholder",
		want: []string{"issue", "repository"},
	}, {
		name:    "unclosed",
		wantErr: "unclosed placeholder",
	}, {
		name:    "invalid identifier",
		wantErr: "invalid placeholder identifier",
	}}

	// Templates must be literals, so each case builds its own prompt.
	build := map[string]func() (*promptbuilder.Prompt, error){
		"no placeholders": func() (*promptbuilder.Prompt, error) {
			return promptbuilder.NewPrompt("Review the proposed fix from context.")
		},
		"repeated placeholder": func() (*promptbuilder.Prompt, error) {
			return promptbuilder.NewPrompt("Issue #{{issue}} in {{ repository }}; branch fix-{{issue}}")
		},
		"unclosed": func() (*promptbuilder.Prompt, error) {
			return promptbuilder.NewPrompt("Issue #{{issue")
		},
		"invalid identifier": func() (*promptbuilder.Prompt, error) {
			return promptbuilder.NewPrompt("Issue #{{1issue}}")
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := build[tt.name]()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewPrompt() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPrompt() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, p.Placeholders()); diff != "" {
				t.Errorf("Placeholders() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildInterpolatesEveryOccurrence(t *testing.T) {
	p := promptbuilder.MustNewPrompt("Open a PR in '{{repository}}' on branch 'sre-crew/fix-issue-{{issue}}' for #{{issue}}.")
	p = p.MustBindText("repository", "octo/hello").MustBindText("issue", "42")

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := "Open a PR in 'octo/hello' on branch 'sre-crew/fix-issue-42' for #42."
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBoundValuesAreNotRescanned(t *testing.T) {
	p := promptbuilder.MustNewPrompt("{{a}} {{b}}").
		MustBindText("a", "{{b}}").
		MustBindText("b", "x")

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != "{{b}} x" {
		t.Errorf("Build() = %q, want %q", got, "{{b}} x")
	}
}

func TestBindErrors(t *testing.T) {
	p := promptbuilder.MustNewPrompt("Hello {{name}}")

	if _, err := p.BindText("missing", "x"); err == nil {
		t.Error("BindText(missing) error = nil, want error")
	}

	bound := p.MustBindText("name", "world")
	if _, err := bound.BindText("name", "again"); err == nil {
		t.Error("BindText(twice) error = nil, want error")
	}

	// The original prompt is left untouched.
	if _, err := p.Build(); err == nil || !strings.Contains(err.Error(), "unbound placeholder: name") {
		t.Errorf("Build() error = %v, want unbound placeholder", err)
	}
}

func TestBindXMLEscapesContent(t *testing.T) {
	type output struct {
		XMLName xml.Name `xml:"output"`
		Step    string   `xml:"step,attr"`
		Text    string   `xml:",chardata"`
	}

	p := promptbuilder.MustNewPrompt("Context:\n{{context}}").
		MustBindXML("context", output{Step: "analyze", Text: "a < b && {{x}}"})

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := "Context:\n<output step=\"analyze\">a &lt; b &amp;&amp; {{x}}</output>"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBindJSONAndYAML(t *testing.T) {
	data := map[string]any{"approved": true}

	p := promptbuilder.MustNewPrompt("{{j}}|{{y}}")
	p, err := p.BindJSON("j", data)
	if err != nil {
		t.Fatalf("BindJSON() error = %v", err)
	}
	p, err = p.BindYAML("y", data)
	if err != nil {
		t.Fatalf("BindYAML() error = %v", err)
	}

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := "{\n  \"approved\": true\n}|approved: true\n"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}
