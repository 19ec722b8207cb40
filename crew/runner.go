/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/srecrew/agents/agenttrace"
	"chainguard.dev/srecrew/agents/llm"
	"chainguard.dev/srecrew/agents/metrics"
	"chainguard.dev/srecrew/agents/promptbuilder"
	"chainguard.dev/srecrew/agents/result"
	"chainguard.dev/srecrew/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"golang.org/x/time/rate"
)

// Defaults for model requests.
const (
	DefaultMaxTokens   int64   = 512
	DefaultTemperature float64 = 0.2
)

// finalAnswerNudge is sent once a role has used up its tool turns.
const finalAnswerNudge = "You have used all available tool iterations. Give your final answer now, without calling tools."

var (
	systemPrompt = promptbuilder.MustNewPrompt("You are {{title}}.\nGoal: {{goal}}\nBackstory: {{backstory}}")

	taskPrompt = promptbuilder.MustNewPrompt("{{instruction}}\n\nExpected output: {{expected}}")

	taskWithContextPrompt = promptbuilder.MustNewPrompt("{{instruction}}\n\nExpected output: {{expected}}\n\nContext:\n{{context}}")
)

// StepOutput is the final text a step produced.
type StepOutput struct {
	Name string `xml:"step,attr"`
	Role string `xml:"-"`
	Text string `xml:",chardata"`
}

// stepContext is the XML document handed to a step holding its context.
type stepContext struct {
	XMLName xml.Name     `xml:"context"`
	Outputs []StepOutput `xml:"output"`
}

// Outcome is what one pass over the pipeline produced.
type Outcome struct {
	// Raw is the final step's output.
	Raw   string
	Steps []StepOutput
	Usage llm.Usage
}

// Runner executes a pipeline once, strictly in order.
type Runner struct {
	client      llm.Client
	tools       toolcall.Set
	roles       map[string]Role
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
	genai       *metrics.GenAI
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithMaxTokens sets the per-request output token budget.
func WithMaxTokens(tokens int64) RunnerOption {
	return func(r *Runner) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		r.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) RunnerOption {
	return func(r *Runner) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		r.temperature = temp
		return nil
	}
}

// WithMaxRPM paces model requests to at most rpm per minute, with no burst.
// Zero disables pacing.
func WithMaxRPM(rpm int) RunnerOption {
	return func(r *Runner) error {
		if rpm < 0 {
			return fmt.Errorf("max rpm cannot be negative, got %d", rpm)
		}
		if rpm == 0 {
			r.limiter = nil
			return nil
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		return nil
	}
}

// WithLimiter paces model requests with l. Nil disables pacing.
func WithLimiter(l *rate.Limiter) RunnerOption {
	return func(r *Runner) error {
		r.limiter = l
		return nil
	}
}

// WithRoles replaces the built-in role catalogue.
func WithRoles(roles map[string]Role) RunnerOption {
	return func(r *Runner) error {
		if len(roles) == 0 {
			return errors.New("roles cannot be empty")
		}
		r.roles = roles
		return nil
	}
}

// NewRunner creates a runner that talks to client and can call tools.
func NewRunner(client llm.Client, tools []toolcall.Tool, opts ...RunnerOption) (*Runner, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	set, err := toolcall.NewSet(tools...)
	if err != nil {
		return nil, err
	}
	roles, err := DefaultRoles()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		client:      client,
		tools:       set,
		roles:       roles,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		genai:       metrics.NewGenAI("chainguard.dev/srecrew"),
	}
	r.genai.SetAttributeEnricher(metrics.RunEnricher)
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return r, nil
}

// Model returns the model the runner talks to.
func (r *Runner) Model() string { return r.client.Model() }

// Run executes steps in order. Any backend fault aborts the pass and is
// returned unchanged so the caller can classify it.
func (r *Runner) Run(ctx context.Context, steps []Step) (*Outcome, error) {
	log := clog.FromContext(ctx)
	out := &Outcome{Steps: make([]StepOutput, 0, len(steps))}
	byName := make(map[string]StepOutput, len(steps))

	for i, step := range steps {
		role, ok := r.roles[step.Role]
		if !ok {
			return nil, fmt.Errorf("step %s: unknown role %q", step.Name, step.Role)
		}
		log.With("step", step.Name).Infof("Step %d/%d: %s (%s)", i+1, len(steps), step.Name, role.Title)

		var prior []StepOutput
		for _, name := range step.Context {
			prev, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("step %s: context step %q has not run", step.Name, name)
			}
			prior = append(prior, prev)
		}

		text, usage, err := r.runStep(ctx, step, role, prior)
		out.Usage.InputTokens += usage.InputTokens
		out.Usage.OutputTokens += usage.OutputTokens
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}

		so := StepOutput{Name: step.Name, Role: role.Title, Text: text}
		out.Steps = append(out.Steps, so)
		byName[step.Name] = so
		log.With("step", step.Name).With("tokens", usage.Total()).Infof("%s finished: %s", role.Title, preview(text))

		if step.Name == StepSecurityReview {
			logVerdict(ctx, text)
		}
	}

	if n := len(out.Steps); n > 0 {
		out.Raw = out.Steps[n-1].Text
	}
	return out, nil
}

func (r *Runner) runStep(ctx context.Context, step Step, role Role, prior []StepOutput) (string, llm.Usage, error) {
	var usage llm.Usage
	log := clog.FromContext(ctx).With("step", step.Name)

	system, err := systemPrompt.
		MustBindText("title", role.Title).
		MustBindText("goal", role.Goal).
		MustBindText("backstory", role.Backstory).
		Build()
	if err != nil {
		return "", usage, err
	}
	task, err := r.buildTask(step, prior)
	if err != nil {
		return "", usage, err
	}

	tools, err := r.tools.Select(step.Tools...)
	if err != nil {
		return "", usage, err
	}
	defs := tools.Definitions()

	trace := agenttrace.StartTrace(ctx, step.Name, task)
	messages := []llm.Message{llm.UserMessage(task)}

	for turn := 1; ; turn++ {
		final := len(defs) == 0 || turn > role.MaxIter
		req := llm.Request{
			System:      system,
			Messages:    messages,
			MaxTokens:   r.maxTokens,
			Temperature: r.temperature,
		}
		if !final {
			req.Tools = defs
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				trace.Complete("", err)
				return "", usage, fmt.Errorf("waiting for request slot: %w", err)
			}
		}
		resp, err := r.client.Complete(ctx, req)
		if err != nil {
			trace.Complete("", err)
			return "", usage, err
		}
		usage.InputTokens += resp.Usage.InputTokens
		usage.OutputTokens += resp.Usage.OutputTokens
		trace.RecordTokenUsage(r.client.Model(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
		r.genai.RecordTokens(ctx, r.client.Model(), resp.Usage.InputTokens, resp.Usage.OutputTokens)

		if len(resp.ToolCalls) == 0 || final {
			trace.Complete(resp.Text, nil)
			return resp.Text, usage, nil
		}

		messages = append(messages, llm.AssistantMessage(resp.Text, resp.ToolCalls...))
		for _, call := range resp.ToolCalls {
			log.With("tool", call.Name).With("id", call.ID).Info("Executing tool call")
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			out := tools.Invoke(ctx, call)
			tc.Complete(out)
			r.genai.RecordToolCall(ctx, r.client.Model(), call.Name)
			log.With("tool", call.Name).Infof("Tool result: %s", preview(out))
			messages = append(messages, llm.ToolMessage(call, out))
		}
		if turn == role.MaxIter {
			messages = append(messages, llm.UserMessage(finalAnswerNudge))
		}
	}
}

func (r *Runner) buildTask(step Step, prior []StepOutput) (string, error) {
	if len(prior) == 0 {
		return taskPrompt.
			MustBindText("instruction", step.Instruction).
			MustBindText("expected", step.ExpectedOutput).
			Build()
	}
	return taskWithContextPrompt.
		MustBindText("instruction", step.Instruction).
		MustBindText("expected", step.ExpectedOutput).
		MustBindXML("context", stepContext{Outputs: prior}).
		Build()
}

// logVerdict reports the review outcome when the reviewer answered in JSON.
// The pipeline continues either way.
func logVerdict(ctx context.Context, text string) {
	log := clog.FromContext(ctx)
	verdict, err := result.Extract[ReviewVerdict](text)
	if err != nil {
		log.Debugf("Security review verdict not machine readable: %v", err)
		return
	}
	if !verdict.Approved {
		log.With("issues", len(verdict.IssuesFound)).Warnf("Security review did not approve the fix: %v", verdict.IssuesFound)
		return
	}
	log.Info("Security review approved the fix")
}

// preview shortens text for single-line log output.
func preview(text string) string {
	const limit = 200
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-3]) + "..."
}
