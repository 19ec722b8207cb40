/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chainguard.dev/srecrew/agents/executor/retry"
	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/llm/llmtest"
	"chainguard.dev/srecrew/agents/toolcall"
	"chainguard.dev/srecrew/issuetracker"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

const prURL = "https://github.com/octo/hello/pull/7"

// fakeTracker stands in for the GitHub tools and records every call.
type fakeTracker struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTracker) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeTracker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTracker) Tools() []toolcall.Tool {
	tool := func(name, answer string) toolcall.Tool {
		return toolcall.Tool{
			Def: toolcall.Definition{Name: name, Description: name},
			Handler: func(context.Context, toolcall.Call) string {
				f.record(name)
				return answer
			},
		}
	}
	return []toolcall.Tool{
		tool(issuetracker.FetchIssueTool, "Title: nil pointer in handler\nBody: crash\nLabels: []\nComments: []"),
		tool(issuetracker.CreatePullRequestTool, "PR created: "+prURL),
		tool(issuetracker.PostCommentTool, "Comment posted successfully."),
	}
}

func text(s string) llmtest.Turn {
	return llmtest.Turn{Response: llm.Response{Text: s, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}}
}

func call(id, name string, args map[string]any) llmtest.Turn {
	return llmtest.Turn{Response: llm.Response{
		ToolCalls: []toolcall.Call{{ID: id, Name: name, Args: args}},
		Usage:     llm.Usage{InputTokens: 10, OutputTokens: 5},
	}}
}

// happyPath scripts one full pass over the pipeline.
func happyPath() []llmtest.Turn {
	return []llmtest.Turn{
		call("c1", issuetracker.FetchIssueTool, map[string]any{"repo_name": "octo/hello", "issue_number": 42}),
		text(`{"root_cause":"nil map","affected_files":["main.go"],"severity":"high","confidence":0.8}`),
		text("--- a/main.go\n+++ b/main.go"),
		text(`{"approved":true,"issues_found":[]}`),
		call("c2", issuetracker.CreatePullRequestTool, map[string]any{"repo_name": "octo/hello", "title": "Fix", "body": "Fix", "branch_name": BranchName(42)}),
		text("PR created: " + prURL + "\nComment posted successfully."),
	}
}

func mustPipeline(t *testing.T, repo string, issue int, opts ...PipelineOption) []Step {
	t.Helper()
	steps, err := BuildPipeline(repo, issue, opts...)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	return steps
}

func mustRunner(t *testing.T, client llm.Client, tools []toolcall.Tool, opts ...RunnerOption) *Runner {
	t.Helper()
	r, err := NewRunner(client, tools, opts...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func last(msgs []llm.Message) llm.Message {
	return msgs[len(msgs)-1]
}

func TestBuildPipeline(t *testing.T) {
	t.Parallel()
	steps := mustPipeline(t, "octo/hello", 42)

	type shape struct {
		Name    string
		Role    string
		Context []string
		Tools   []string
	}
	var got []shape
	for _, s := range steps {
		got = append(got, shape{Name: s.Name, Role: s.Role, Context: s.Context, Tools: s.Tools})
	}
	// Only the first and last steps may touch GitHub, and each step
	// receives exactly the output before it.
	want := []shape{
		{Name: StepAnalyze, Role: IssueAnalyzer, Tools: []string{issuetracker.FetchIssueTool}},
		{Name: StepSuggestFix, Role: CodeSuggester, Context: []string{StepAnalyze}},
		{Name: StepSecurityReview, Role: SecurityReviewer, Context: []string{StepSuggestFix}},
		{Name: StepOpenPR, Role: PRDrafter, Context: []string{StepSecurityReview},
			Tools: []string{issuetracker.CreatePullRequestTool, issuetracker.PostCommentTool}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pipeline (-want +got):\n%s", diff)
	}

	for _, c := range []struct {
		step int
		want string
	}{
		{0, "#42"},
		{0, "'octo/hello'"},
		{3, "'sre-crew/fix-issue-42'"},
	} {
		if !strings.Contains(steps[c.step].Instruction, c.want) {
			t.Errorf("step %s instruction = %q, want it to contain %q", steps[c.step].Name, steps[c.step].Instruction, c.want)
		}
	}
	if got, want := steps[0].ExpectedOutput, "JSON: root_cause, affected_files, severity, confidence"; got != want {
		t.Errorf("analyze ExpectedOutput = %q, want %q", got, want)
	}
	if got, want := steps[2].ExpectedOutput, "JSON: approved, issues_found, revised_patch"; got != want {
		t.Errorf("security_review ExpectedOutput = %q, want %q", got, want)
	}
	for _, s := range steps {
		if strings.Contains(s.Instruction, "Human hint") {
			t.Errorf("step %s carries guidance without WithGuidance", s.Name)
		}
	}
}

func TestBuildPipelineGuidance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		guidance string
		want     string
	}{
		{name: "trimmed", guidance: "  the bug is in auth.py  ", want: "\nHuman hint: the bug is in auth.py"},
		{name: "blank ignored", guidance: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, s := range mustPipeline(t, "octo/hello", 42, WithGuidance(tt.guidance)) {
				if tt.want == "" {
					if strings.Contains(s.Instruction, "Human hint") {
						t.Errorf("step %s instruction = %q, want no guidance", s.Name, s.Instruction)
					}
					continue
				}
				if !strings.HasSuffix(s.Instruction, tt.want) {
					t.Errorf("step %s instruction = %q, want suffix %q", s.Name, s.Instruction, tt.want)
				}
			}
		})
	}
}

func TestBranchName(t *testing.T) {
	t.Parallel()
	if got, want := BranchName(7), "sre-crew/fix-issue-7"; got != want {
		t.Errorf("BranchName(7) = %q, want %q", got, want)
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid", req: Request{Repository: "octo/hello", IssueNumber: 1}},
		{name: "missing slash", req: Request{Repository: "hello", IssueNumber: 1}, wantErr: true},
		{name: "empty owner", req: Request{Repository: "/hello", IssueNumber: 1}, wantErr: true},
		{name: "zero issue", req: Request{Repository: "octo/hello"}, wantErr: true},
		{name: "negative issue", req: Request{Repository: "octo/hello", IssueNumber: -3}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr != errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestDefaultRoles(t *testing.T) {
	t.Parallel()
	roles, err := DefaultRoles()
	if err != nil {
		t.Fatalf("DefaultRoles() error = %v", err)
	}
	if got := roles[IssueAnalyzer].Title; got != "Issue Analyzer" {
		t.Errorf("issue_analyzer title = %q, want %q", got, "Issue Analyzer")
	}
	if got := roles[PRDrafter].MaxIter; got != 2 {
		t.Errorf("pr_drafter max_iter = %d, want 2", got)
	}
}

func TestParseRolesErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{{
		name:    "malformed",
		data:    "issue_analyzer: [",
		wantErr: "decoding roles",
	}, {
		name:    "missing role",
		data:    "issue_analyzer: {title: A, max_iter: 1}",
		wantErr: `role "code_suggester" is not defined`,
	}, {
		name: "zero max_iter",
		data: `
issue_analyzer: {title: A, max_iter: 0}
code_suggester: {title: B, max_iter: 1}
security_reviewer: {title: C, max_iter: 1}
pr_drafter: {title: D, max_iter: 1}
`,
		wantErr: "max_iter must be at least 1",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRoles([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseRoles() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunnerRunsStepsInOrder(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	client := llmtest.New(happyPath()...)
	runner := mustRunner(t, client, tracker.Tools())

	out, err := runner.Run(context.Background(), mustPipeline(t, "octo/hello", 42))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.Steps) != 4 {
		t.Fatalf("Run() produced %d steps, want 4", len(out.Steps))
	}
	if out.Raw != out.Steps[3].Text || !strings.Contains(out.Raw, "PR created") {
		t.Errorf("Raw = %q, want the open_pr output", out.Raw)
	}
	if got := out.Usage.Total(); got != 6*15 {
		t.Errorf("Usage.Total() = %d, want %d", got, 6*15)
	}
	if diff := cmp.Diff([]string{issuetracker.FetchIssueTool, issuetracker.CreatePullRequestTool}, tracker.Calls()); diff != "" {
		t.Errorf("tool calls (-want +got):\n%s", diff)
	}

	reqs := client.Requests()
	if len(reqs) != 6 {
		t.Fatalf("model requests = %d, want 6", len(reqs))
	}
	toolNames := func(req llm.Request) []string {
		var names []string
		for _, d := range req.Tools {
			names = append(names, d.Name)
		}
		return names
	}
	wantTools := [][]string{
		{issuetracker.FetchIssueTool},
		{issuetracker.FetchIssueTool},
		nil,
		nil,
		{issuetracker.CreatePullRequestTool, issuetracker.PostCommentTool},
		{issuetracker.CreatePullRequestTool, issuetracker.PostCommentTool},
	}
	for i, req := range reqs {
		if diff := cmp.Diff(wantTools[i], toolNames(req)); diff != "" {
			t.Errorf("request %d tools (-want +got):\n%s", i, diff)
		}
	}

	if !strings.Contains(reqs[0].System, "You are Issue Analyzer.") {
		t.Errorf("analyze system prompt = %q", reqs[0].System)
	}
	if m := last(reqs[1].Messages); m.Role != llm.RoleTool || m.ToolCallID != "c1" {
		t.Errorf("second analyze turn ends with %+v, want the c1 tool result", m)
	}

	// Each step sees only the previous step's output as context.
	for i, c := range []struct {
		req     int
		want    string
		notWant string
	}{
		{req: 2, want: `<output step="analyze">`},
		{req: 3, want: `<output step="suggest_fix">`, notWant: `<output step="analyze">`},
		{req: 4, want: `<output step="security_review">`},
	} {
		task := reqs[c.req].Messages[0].Text
		if !strings.Contains(task, c.want) {
			t.Errorf("case %d: task = %q, want it to contain %q", i, task, c.want)
		}
		if c.notWant != "" && strings.Contains(task, c.notWant) {
			t.Errorf("case %d: task = %q, want it not to contain %q", i, task, c.notWant)
		}
	}
	if reqs[4].MaxTokens != DefaultMaxTokens || reqs[4].Temperature != DefaultTemperature {
		t.Errorf("request settings = (%d, %v), want (%d, %v)", reqs[4].MaxTokens, reqs[4].Temperature, DefaultMaxTokens, DefaultTemperature)
	}
}

func TestRunnerForcesFinalAnswerAfterMaxIter(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	fetch := func(id string) llmtest.Turn {
		return call(id, issuetracker.FetchIssueTool, map[string]any{"repo_name": "octo/hello", "issue_number": 1})
	}
	client := llmtest.New(
		fetch("a"),
		fetch("b"),
		// The third turn has no tools on offer, so a stray call is ignored.
		call("c", issuetracker.FetchIssueTool, nil),
	)
	runner := mustRunner(t, client, tracker.Tools())

	out, err := runner.Run(context.Background(), mustPipeline(t, "octo/hello", 1)[:1])
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Raw != "" {
		t.Errorf("Raw = %q, want empty", out.Raw)
	}
	if diff := cmp.Diff([]string{issuetracker.FetchIssueTool, issuetracker.FetchIssueTool}, tracker.Calls()); diff != "" {
		t.Errorf("tool calls (-want +got):\n%s", diff)
	}

	reqs := client.Requests()
	if len(reqs) != 3 {
		t.Fatalf("model requests = %d, want 3", len(reqs))
	}
	if len(reqs[1].Tools) == 0 || len(reqs[2].Tools) != 0 {
		t.Errorf("tools offered = %d then %d, want some then none", len(reqs[1].Tools), len(reqs[2].Tools))
	}
	want := llm.Message{Role: llm.RoleUser, Text: finalAnswerNudge}
	if diff := cmp.Diff(want, last(reqs[2].Messages)); diff != "" {
		t.Errorf("final turn (-want +got):\n%s", diff)
	}
}

func TestRunnerUnknownToolAnswersModel(t *testing.T) {
	t.Parallel()
	client := llmtest.New(
		call("x", "web_search", map[string]any{"q": "bug"}),
		text("done"),
	)
	runner := mustRunner(t, client, (&fakeTracker{}).Tools())

	if _, err := runner.Run(context.Background(), mustPipeline(t, "octo/hello", 1)[:1]); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := last(client.Requests()[1].Messages).Text, `Error: unknown tool "web_search"`; got != want {
		t.Errorf("tool answer = %q, want %q", got, want)
	}
}

func TestRunnerOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opt  RunnerOption
	}{
		{name: "zero max tokens", opt: WithMaxTokens(0)},
		{name: "negative temperature", opt: WithTemperature(-0.1)},
		{name: "temperature too high", opt: WithTemperature(2.5)},
		{name: "no roles", opt: WithRoles(nil)},
		{name: "negative rpm", opt: WithMaxRPM(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRunner(llmtest.New(), nil, tt.opt); err == nil {
				t.Error("NewRunner() error = nil, want error")
			}
		})
	}
	if _, err := NewRunner(nil, nil); err == nil {
		t.Error("NewRunner(nil) error = nil, want error")
	}
}

// timedClient records when each request reaches the backend.
type timedClient struct {
	llm.Client
	mu    sync.Mutex
	times []time.Time
}

func (c *timedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	c.times = append(c.times, time.Now())
	c.mu.Unlock()
	return c.Client.Complete(ctx, req)
}

func TestRunnerPacesRequests(t *testing.T) {
	t.Parallel()
	const interval = 50 * time.Millisecond
	client := &timedClient{Client: llmtest.New(happyPath()...)}
	runner := mustRunner(t, client, (&fakeTracker{}).Tools(),
		WithLimiter(rate.NewLimiter(rate.Every(interval), 1)))

	if _, err := runner.Run(context.Background(), mustPipeline(t, "octo/hello", 42)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(client.times) != 6 {
		t.Fatalf("requests = %d, want 6", len(client.times))
	}
	// Allow a little scheduler slack below the nominal interval.
	for i := 1; i < len(client.times); i++ {
		if gap := client.times[i].Sub(client.times[i-1]); gap < interval-5*time.Millisecond {
			t.Errorf("gap before request %d = %v, want at least %v", i, gap, interval)
		}
	}
}

func TestRunnerPacingHonoursCancellation(t *testing.T) {
	t.Parallel()
	client := llmtest.New(happyPath()...)
	// One request per hour: the second request cannot get a slot.
	runner := mustRunner(t, client, (&fakeTracker{}).Tools(), WithMaxRPM(1))
	runner.limiter.SetLimit(rate.Every(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := runner.Run(ctx, mustPipeline(t, "octo/hello", 42))
	if err == nil || !strings.Contains(err.Error(), "waiting for request slot") {
		t.Fatalf("Run() error = %v, want a pacing error", err)
	}
	if n := len(client.Requests()); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestWithMaxRPM(t *testing.T) {
	t.Parallel()
	r := mustRunner(t, llmtest.New(), nil, WithMaxRPM(1))
	if r.limiter == nil {
		t.Fatal("WithMaxRPM(1) left the runner unpaced")
	}
	if got, want := r.limiter.Limit(), rate.Every(time.Minute); got != want {
		t.Errorf("limit = %v, want %v", got, want)
	}
	if got := r.limiter.Burst(); got != 1 {
		t.Errorf("burst = %d, want 1", got)
	}
	if r := mustRunner(t, llmtest.New(), nil, WithMaxRPM(0)); r.limiter != nil {
		t.Error("WithMaxRPM(0) paced the runner, want no pacing")
	}
}

func TestRunnerPropagatesBackendFault(t *testing.T) {
	t.Parallel()
	fault := llm.RateLimited(errors.New("429 Too Many Requests"))
	runner := mustRunner(t, llmtest.New(llmtest.Turn{Err: fault}), (&fakeTracker{}).Tools())

	_, err := runner.Run(context.Background(), mustPipeline(t, "octo/hello", 1))
	if !errors.Is(err, fault) {
		t.Fatalf("Run() error = %v, want %v", err, fault)
	}
	if !strings.HasPrefix(err.Error(), "step analyze:") {
		t.Errorf("Run() error = %q, want step prefix", err)
	}
	if !retry.IsRateLimit(err) {
		t.Errorf("IsRateLimit(%v) = false, want true", err)
	}
}

// recordingSleep returns a no-op sleep that records each wait.
func recordingSleep() (func(context.Context, time.Duration) error, func() []time.Duration) {
	var mu sync.Mutex
	var waits []time.Duration
	return func(_ context.Context, d time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			waits = append(waits, d)
			return nil
		}, func() []time.Duration {
			mu.Lock()
			defer mu.Unlock()
			return append([]time.Duration(nil), waits...)
		}
}

func newExecutor(t *testing.T, client llm.Client, tracker *fakeTracker, opts ...Option) *Executor {
	t.Helper()
	ex, err := NewExecutor(mustRunner(t, client, tracker.Tools()), opts...)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return ex
}

var octoHello42 = Request{Repository: "octo/hello", IssueNumber: 42}

func TestExecuteSucceedsAfterRateLimit(t *testing.T) {
	t.Parallel()
	turns := append([]llmtest.Turn{
		call("c0", issuetracker.FetchIssueTool, map[string]any{"repo_name": "octo/hello", "issue_number": 42}),
		{Err: llm.RateLimited(errors.New("Please try again in 55.0s"))},
	}, happyPath()...)
	sleep, waits := recordingSleep()
	tracker := &fakeTracker{}
	ex := newExecutor(t, llmtest.New(turns...), tracker, WithSleep(sleep))

	res, err := ex.Execute(context.Background(), octoHello42, 3)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success || !strings.Contains(res.Raw, prURL) {
		t.Errorf("Execute() = %+v, want a successful run linking %s", res, prURL)
	}
	if len(res.StepOutputs) != 4 {
		t.Errorf("StepOutputs = %d, want 4", len(res.StepOutputs))
	}
	// Only the successful attempt's usage is reported.
	if res.TokenUsage != 6*15 {
		t.Errorf("TokenUsage = %d, want %d", res.TokenUsage, 6*15)
	}
	if diff := cmp.Diff([]time.Duration{70 * time.Second}, waits()); diff != "" {
		t.Errorf("waits (-want +got):\n%s", diff)
	}
	// The first attempt fetched before failing; the retry replays everything.
	want := []string{issuetracker.FetchIssueTool, issuetracker.FetchIssueTool, issuetracker.CreatePullRequestTool}
	if diff := cmp.Diff(want, tracker.Calls()); diff != "" {
		t.Errorf("tool calls (-want +got):\n%s", diff)
	}
}

func TestExecuteFaults(t *testing.T) {
	t.Parallel()
	tokens := errors.New("Rate limit reached: Limit 6000, Used 5990, Requested 400 tokens")
	invalidKey := errors.New("401 invalid api key")

	tests := []struct {
		name          string
		req           Request
		turns         []llmtest.Turn
		maxAttempts   int
		wantErr       error
		wantExhausted bool
		wantWaits     []time.Duration
		wantRequests  int
	}{{
		name:          "exhausted",
		req:           octoHello42,
		turns:         []llmtest.Turn{{Err: tokens}, {Err: tokens}, {Err: tokens}},
		maxAttempts:   3,
		wantErr:       tokens,
		wantExhausted: true,
		wantWaits:     []time.Duration{65 * time.Second, 65 * time.Second},
		wantRequests:  3,
	}, {
		name:         "not retriable",
		req:          octoHello42,
		turns:        []llmtest.Turn{{Err: invalidKey}},
		maxAttempts:  3,
		wantErr:      invalidKey,
		wantRequests: 1,
	}, {
		name:        "invalid request",
		req:         Request{Repository: "nope", IssueNumber: 1},
		maxAttempts: 3,
		wantErr:     ErrInvalidRequest,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sleep, waits := recordingSleep()
			client := llmtest.New(tt.turns...)
			ex := newExecutor(t, client, &fakeTracker{}, WithSleep(sleep))

			_, err := ex.Execute(context.Background(), tt.req, tt.maxAttempts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			var exhausted *retry.ExhaustedRetriesError
			if got := errors.As(err, &exhausted); got != tt.wantExhausted {
				t.Errorf("exhausted = %v, want %v", got, tt.wantExhausted)
			}
			if tt.wantExhausted && !strings.HasPrefix(err.Error(), "crew failed after 3 attempts. Last error:") {
				t.Errorf("Execute() error = %q", err)
			}
			if diff := cmp.Diff(tt.wantWaits, waits()); diff != "" {
				t.Errorf("waits (-want +got):\n%s", diff)
			}
			if n := len(client.Requests()); n != tt.wantRequests {
				t.Errorf("requests = %d, want %d", n, tt.wantRequests)
			}
		})
	}
}

func TestExecuteUnsuccessfulOutput(t *testing.T) {
	t.Parallel()
	turns := happyPath()
	turns[len(turns)-1] = text("I could not open the pull request.")
	sleep, _ := recordingSleep()
	ex := newExecutor(t, llmtest.New(turns...), &fakeTracker{}, WithSleep(sleep))

	res, err := ex.Execute(context.Background(), octoHello42, 1)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false without a PR")
	}
}

func TestExecuteGuidanceReachesEveryStep(t *testing.T) {
	t.Parallel()
	client := llmtest.New(happyPath()...)
	sleep, _ := recordingSleep()
	ex := newExecutor(t, client, &fakeTracker{}, WithSleep(sleep))

	req := octoHello42
	req.Guidance = "check auth.py"
	if _, err := ex.Execute(context.Background(), req, 1); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for i, r := range client.Requests() {
		if !strings.Contains(r.Messages[0].Text, "Human hint: check auth.py") {
			t.Errorf("request %d task missing guidance", i)
		}
	}
}

func TestExecutorRunUsesDefaultBudget(t *testing.T) {
	t.Parallel()
	fault := llm.RateLimited(errors.New("429"))
	sleep, waits := recordingSleep()
	ex := newExecutor(t, llmtest.New(llmtest.Turn{Err: fault}, llmtest.Turn{Err: fault}), &fakeTracker{},
		WithSleep(sleep), WithMaxAttempts(2))

	_, err := ex.Run(context.Background(), "octo/hello", 9)
	var exhausted *retry.ExhaustedRetriesError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Run() error = %v, want ExhaustedRetriesError", err)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", exhausted.Attempts)
	}
	if n := len(waits()); n != 1 {
		t.Errorf("waits = %d, want 1", n)
	}
}

func TestExecutorOptions(t *testing.T) {
	t.Parallel()
	runner := mustRunner(t, llmtest.New(), nil)
	bad := retry.DefaultConfig()
	bad.MaxAttempts = 0

	tests := []struct {
		name string
		opt  Option
	}{
		{name: "zero attempts", opt: WithMaxAttempts(0)},
		{name: "nil sleep", opt: WithSleep(nil)},
		{name: "invalid retry config", opt: WithRetryConfig(bad)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewExecutor(runner, tt.opt); err == nil {
				t.Error("NewExecutor() error = nil, want error")
			}
		})
	}
	if _, err := NewExecutor(nil); err == nil {
		t.Error("NewExecutor(nil) error = nil, want error")
	}
}

func TestElapsedSeconds(t *testing.T) {
	t.Parallel()
	r := &RunResult{Elapsed: 1234567 * time.Microsecond}
	if got := r.ElapsedSeconds(); got != 1.23 {
		t.Errorf("ElapsedSeconds() = %v, want 1.23", got)
	}
}
