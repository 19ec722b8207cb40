/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chainguard.dev/srecrew/agents/executor/retry"
	"chainguard.dev/srecrew/crew"
	"chainguard.dev/srecrew/logstream"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const credentialsHint = "Check GITHUB_TOKEN and the model API key (LLM_API_KEY, GROQ_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY)."

// printLatest echoes the newest line of the display as it arrives.
func printLatest(w io.Writer) func(*logstream.Display) {
	faint := color.New(color.Faint)
	return func(d *logstream.Display) {
		lines := d.Lines()
		if len(lines) == 0 {
			return
		}
		faint.Fprintln(w, lines[len(lines)-1])
	}
}

func printResult(w io.Writer, res *crew.RunResult) {
	bold := color.New(color.Bold)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Result")
	if res.Success {
		color.New(color.FgGreen).Fprintln(w, "  Success:  yes")
	} else {
		color.New(color.FgYellow).Fprintln(w, "  Success:  no")
	}
	fmt.Fprintf(w, "  Elapsed:  %.2fs\n", res.ElapsedSeconds())
	fmt.Fprintf(w, "  Tokens:   %d\n", res.TokenUsage)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Final output")
	fmt.Fprintln(w, res.Raw)

	if len(res.StepOutputs) == 0 {
		return
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Steps")
	table := newStepTable(w)
	for _, s := range res.StepOutputs {
		_ = table.Append([]string{s.Name, s.Role, summarize(s.Text, 100)})
	}
	_ = table.Render()
}

func printFailure(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "Run failed: %v\n", err)

	var exhausted *retry.ExhaustedRetriesError
	if errors.As(err, &exhausted) {
		fmt.Fprintf(w, "Every one of %d attempts hit the backend rate limit. Wait a minute or lower MAX_TOKENS.\n", exhausted.Attempts)
		return
	}
	fmt.Fprintln(w, credentialsHint)
}

func newStepTable(w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"Step", "Role", "Output"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// summarize flattens text onto one line and caps it at limit runes.
func summarize(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= limit {
		return flat
	}
	return string(r[:limit-3]) + "..."
}
