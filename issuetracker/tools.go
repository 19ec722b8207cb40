/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package issuetracker

import (
	"context"

	"chainguard.dev/srecrew/agents/toolcall"
	"chainguard.dev/srecrew/agents/toolcall/params"
)

// Tool names as seen by the model.
const (
	FetchIssueTool        = "fetch_github_issue"
	CreatePullRequestTool = "create_pull_request"
	PostCommentTool       = "post_issue_comment"
)

// Tools returns the three GitHub tools backed by c.
func (c *Client) Tools() []toolcall.Tool {
	return []toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        FetchIssueTool,
			Description: "Fetches a GitHub issue body, labels, and comments.",
			Parameters: []toolcall.Parameter{
				{Name: "repo_name", Type: "string", Description: "Repository in owner/name form", Required: true},
				{Name: "issue_number", Type: "integer", Description: "Issue number", Required: true},
			},
		},
		Handler: func(ctx context.Context, call toolcall.Call) string {
			repo, issue, err := repoAndIssue(call)
			if err != nil {
				return params.Error("Error fetching issue", err)
			}
			return c.FetchIssue(ctx, repo, issue)
		},
	}, {
		Def: toolcall.Definition{
			Name:        CreatePullRequestTool,
			Description: "Creates a branch and opens a PR.",
			Parameters: []toolcall.Parameter{
				{Name: "repo_name", Type: "string", Description: "Repository in owner/name form", Required: true},
				{Name: "title", Type: "string", Description: "Pull request title", Required: true},
				{Name: "body", Type: "string", Description: "Pull request description", Required: true},
				{Name: "branch_name", Type: "string", Description: "Branch to create for the change", Required: true},
				{Name: "base", Type: "string", Description: "Branch to merge into (default main)"},
			},
		},
		Handler: func(ctx context.Context, call toolcall.Call) string {
			var repo, title, body, branch string
			for _, arg := range []struct {
				name string
				dst  *string
			}{
				{"repo_name", &repo},
				{"title", &title},
				{"body", &body},
				{"branch_name", &branch},
			} {
				v, err := params.Extract[string](call.Args, arg.name)
				if err != nil {
					return params.Error("Error creating PR", err)
				}
				*arg.dst = v
			}
			base, err := params.ExtractOptional(call.Args, "base", DefaultBase)
			if err != nil {
				return params.Error("Error creating PR", err)
			}
			return c.CreatePullRequest(ctx, repo, title, body, branch, base)
		},
	}, {
		Def: toolcall.Definition{
			Name:        PostCommentTool,
			Description: "Posts a comment on a GitHub issue.",
			Parameters: []toolcall.Parameter{
				{Name: "repo_name", Type: "string", Description: "Repository in owner/name form", Required: true},
				{Name: "issue_number", Type: "integer", Description: "Issue number", Required: true},
				{Name: "comment", Type: "string", Description: "Comment text", Required: true},
			},
		},
		Handler: func(ctx context.Context, call toolcall.Call) string {
			repo, issue, err := repoAndIssue(call)
			if err != nil {
				return params.Error("Error posting comment", err)
			}
			comment, err := params.Extract[string](call.Args, "comment")
			if err != nil {
				return params.Error("Error posting comment", err)
			}
			return c.PostComment(ctx, repo, issue, comment)
		},
	}}
}

func repoAndIssue(call toolcall.Call) (string, int, error) {
	repo, err := params.Extract[string](call.Args, "repo_name")
	if err != nil {
		return "", 0, err
	}
	issue, err := params.Extract[int](call.Args, "issue_number")
	if err != nil {
		return "", 0, err
	}
	return repo, issue, nil
}
