/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"fmt"
	"strconv"
	"strings"

	"chainguard.dev/srecrew/agents/promptbuilder"
	"chainguard.dev/srecrew/agents/schema"
	"chainguard.dev/srecrew/issuetracker"
)

// Step names, in pipeline order.
const (
	StepAnalyze        = "analyze"
	StepSuggestFix     = "suggest_fix"
	StepSecurityReview = "security_review"
	StepOpenPR         = "open_pr"
)

// Step is one role-bound unit of work.
type Step struct {
	Name           string
	Role           string
	Instruction    string
	ExpectedOutput string
	// Context names the steps whose outputs this step receives.
	Context []string
	// Tools names the tools this step may call.
	Tools []string
}

// Analysis is the shape the analyze step is asked to produce.
type Analysis struct {
	RootCause     string   `json:"root_cause" jsonschema:"required"`
	AffectedFiles []string `json:"affected_files" jsonschema:"required"`
	Severity      string   `json:"severity" jsonschema:"required,enum=low,enum=medium,enum=high"`
	Confidence    float64  `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
}

// ReviewVerdict is the shape the security_review step is asked to produce.
type ReviewVerdict struct {
	Approved     bool     `json:"approved" jsonschema:"required"`
	IssuesFound  []string `json:"issues_found" jsonschema:"required"`
	RevisedPatch string   `json:"revised_patch,omitempty"`
}

// BranchName is the branch the open_pr step creates for issue.
func BranchName(issue int) string {
	return "sre-crew/fix-issue-" + strconv.Itoa(issue)
}

// Instructions are kept short: every prompt token counts against a
// per-minute budget on small backends.
var (
	analyzeInstruction = promptbuilder.MustNewPrompt(
		"Fetch issue #{{issue}} from repo '{{repository}}' using the {{tool}} tool. " +
			"Do NOT use web search. " +
			"Return root cause, affected files, severity (low/medium/high), and confidence score 0-1.")

	suggestInstruction = promptbuilder.MustNewPrompt(
		"Using only the issue analysis in context, propose a minimal code fix. " +
			"Do NOT use search tools. " +
			"Include filename, line numbers if known, and a unified diff or clear description.")

	reviewInstruction = promptbuilder.MustNewPrompt(
		"Review the proposed fix from context. " +
			"Do NOT use search tools. " +
			"Flag security issues, hardcoded secrets, or logic errors. " +
			"Output approved=true/false and issues found.")

	openPRInstruction = promptbuilder.MustNewPrompt(
		"Open a PR in '{{repository}}' on branch '{{branch}}' using the {{pr_tool}} tool. " +
			"Then comment on issue #{{issue}} using {{comment_tool}}. " +
			"Do NOT use search tools.")

	withGuidance = promptbuilder.MustNewPrompt("{{instruction}}\nHuman hint: {{guidance}}")
)

type pipelineOptions struct {
	guidance string
}

// PipelineOption configures BuildPipeline.
type PipelineOption func(*pipelineOptions)

// WithGuidance adds operator guidance to every step instruction.
func WithGuidance(guidance string) PipelineOption {
	return func(o *pipelineOptions) {
		o.guidance = strings.TrimSpace(guidance)
	}
}

// BuildPipeline returns the four steps for issue in repository, in order.
func BuildPipeline(repository string, issue int, opts ...PipelineOption) ([]Step, error) {
	o := &pipelineOptions{}
	for _, opt := range opts {
		opt(o)
	}

	issueText := strconv.Itoa(issue)
	analysisShape, err := fieldList[Analysis]()
	if err != nil {
		return nil, err
	}
	verdictShape, err := fieldList[ReviewVerdict]()
	if err != nil {
		return nil, err
	}

	analyze, err := build(analyzeInstruction.
		MustBindText("issue", issueText).
		MustBindText("repository", repository).
		MustBindText("tool", issuetracker.FetchIssueTool))
	if err != nil {
		return nil, err
	}
	suggest, err := suggestInstruction.Build()
	if err != nil {
		return nil, err
	}
	review, err := reviewInstruction.Build()
	if err != nil {
		return nil, err
	}
	openPR, err := build(openPRInstruction.
		MustBindText("repository", repository).
		MustBindText("branch", BranchName(issue)).
		MustBindText("pr_tool", issuetracker.CreatePullRequestTool).
		MustBindText("issue", issueText).
		MustBindText("comment_tool", issuetracker.PostCommentTool))
	if err != nil {
		return nil, err
	}

	steps := []Step{{
		Name:           StepAnalyze,
		Role:           IssueAnalyzer,
		Instruction:    analyze,
		ExpectedOutput: "JSON: " + analysisShape,
		Tools:          []string{issuetracker.FetchIssueTool},
	}, {
		Name:           StepSuggestFix,
		Role:           CodeSuggester,
		Instruction:    suggest,
		ExpectedOutput: "Code diff or patch with brief explanation.",
		Context:        []string{StepAnalyze},
	}, {
		Name:           StepSecurityReview,
		Role:           SecurityReviewer,
		Instruction:    review,
		ExpectedOutput: "JSON: " + verdictShape,
		Context:        []string{StepSuggestFix},
	}, {
		Name:           StepOpenPR,
		Role:           PRDrafter,
		Instruction:    openPR,
		ExpectedOutput: "PR URL and comment confirmation.",
		Context:        []string{StepSecurityReview},
		Tools:          []string{issuetracker.CreatePullRequestTool, issuetracker.PostCommentTool},
	}}

	if o.guidance != "" {
		for i := range steps {
			steps[i].Instruction, err = build(withGuidance.
				MustBindText("instruction", steps[i].Instruction).
				MustBindText("guidance", o.guidance))
			if err != nil {
				return nil, err
			}
		}
	}
	return steps, nil
}

func build(p *promptbuilder.Prompt) (string, error) {
	s, err := p.Build()
	if err != nil {
		return "", fmt.Errorf("building instruction: %w", err)
	}
	return s, nil
}

// fieldList renders the JSON property names of T in declaration order, e.g.
// "root_cause, affected_files, severity, confidence".
func fieldList[T any]() (string, error) {
	s := schema.ReflectType[T]()
	if s.Properties == nil {
		return "", fmt.Errorf("type %T has no properties", *new(T))
	}
	var names []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return strings.Join(names, ", "), nil
}
