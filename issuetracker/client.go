/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package issuetracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// DefaultBase is the branch pull requests target when none is given.
const DefaultBase = "main"

// Client performs issue and pull request operations on GitHub.
type Client struct {
	gh *github.Client
}

type options struct {
	baseURL string
	http    *http.Client
}

// Option configures NewClient.
type Option func(*options) error

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(u string) Option {
	return func(o *options) error {
		if _, err := url.Parse(u); err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		o.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the transport used beneath the token source.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		o.http = hc
		return nil
	}
}

// NewClient returns a client authenticated with a personal access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("github token is required")
	}
	o := &options{http: &http.Client{}}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	base := o.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   &loggingRoundTripper{base: base},
		},
		Timeout: o.http.Timeout,
	}

	gh := github.NewClient(hc)
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh}, nil
}

// loggingRoundTripper logs one debug line per GitHub API round trip.
type loggingRoundTripper struct {
	base http.RoundTripper
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	log := clog.FromContext(req.Context()).With("method", req.Method).With("path", req.URL.Path)
	if err != nil {
		log.Debugf("github api error after %s: %v", time.Since(start).Truncate(time.Millisecond), err)
		return resp, err
	}
	log.Debugf("github api %d (%s)", resp.StatusCode, time.Since(start).Truncate(time.Millisecond))
	return resp, nil
}

// SplitRepository splits "owner/name" into its parts.
func SplitRepository(repository string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q must be in owner/name form", repository)
	}
	return owner, name, nil
}

// FetchIssue returns the issue title, body, labels and comments as text.
func (c *Client) FetchIssue(ctx context.Context, repository string, number int) string {
	text, err := c.fetchIssue(ctx, repository, number)
	if err != nil {
		return fmt.Sprintf("Error fetching issue: %v", err)
	}
	return text
}

func (c *Client) fetchIssue(ctx context.Context, repository string, number int) (string, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return "", err
	}
	issue, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return "", err
	}

	var comments []string
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return "", err
		}
		for _, cm := range page {
			comments = append(comments, cm.GetBody())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", issue.GetTitle())
	fmt.Fprintf(&sb, "Body: %s\n", issue.GetBody())
	fmt.Fprintf(&sb, "Labels: %s\n", formatList(labels))
	fmt.Fprintf(&sb, "Comments: %s", formatList(comments))
	return sb.String(), nil
}

// formatList renders items as ["a", "b"].
func formatList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, fmt.Sprintf("%q", it))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// CreatePullRequest creates branch from the head of base and opens a pull
// request from it. An empty base means DefaultBase.
func (c *Client) CreatePullRequest(ctx context.Context, repository, title, body, branch, base string) string {
	link, err := c.createPullRequest(ctx, repository, title, body, branch, base)
	if err != nil {
		return fmt.Sprintf("Error creating PR: %v", err)
	}
	return "PR created: " + link
}

func (c *Client) createPullRequest(ctx context.Context, repository, title, body, branch, base string) (string, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", errors.New("branch name is required")
	}
	if base == "" {
		base = DefaultBase
	}

	source, _, err := c.gh.Repositories.GetBranch(ctx, owner, repo, base, 1)
	if err != nil {
		return "", fmt.Errorf("getting base branch %s: %w", base, err)
	}
	if _, _, err := c.gh.Git.CreateRef(ctx, owner, repo, github.CreateRef{
		Ref: "refs/heads/" + branch,
		SHA: source.GetCommit().GetSHA(),
	}); err != nil {
		return "", fmt.Errorf("creating branch %s: %w", branch, err)
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
		Head:  github.Ptr(branch),
		Base:  github.Ptr(base),
	})
	if err != nil {
		return "", err
	}
	clog.FromContext(ctx).With("pr", pr.GetNumber()).Infof("Opened pull request %s", pr.GetHTMLURL())
	return pr.GetHTMLURL(), nil
}

// PostComment adds a comment to an issue.
func (c *Client) PostComment(ctx context.Context, repository string, number int, text string) string {
	if err := c.postComment(ctx, repository, number, text); err != nil {
		return fmt.Sprintf("Error posting comment: %v", err)
	}
	return "Comment posted successfully."
}

func (c *Client) postComment(ctx context.Context, repository string, number int, text string) error {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(text),
	})
	return err
}
