/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders tournament results as markdown.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// promptExcerptRunes bounds the prompt column.
const promptExcerptRunes = 48

// createStandardTable creates a markdown table with left-aligned cells.
func createStandardTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
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

// Leaderboard renders the ranked prompts of a batch with their per-criterion
// final scores, followed by the judges' reasoning for the winning prompt.
func Leaderboard(batch *tournament.BatchResult) string {
	var sb strings.Builder

	sb.WriteString("# Prompt Tournament\n\n")
	fmt.Fprintf(&sb, "- Batch: `%s` (%s)\n", batch.ID, batch.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Generation: %s / %s\n", batch.GenerationProvider, batch.GenerationModel)
	fmt.Fprintf(&sb, "- Evaluation: %s / %s\n", batch.EvaluationProvider, batch.EvaluationModel)
	if len(batch.Results) > 0 {
		r := batch.Results[0]
		fmt.Fprintf(&sb, "- Runs: %d generations x %d judge passes per prompt\n", r.GenerationCount, r.EvaluationCount)
	}
	fmt.Fprintf(&sb, "- Elapsed: %s\n\n", batch.ExecutionTime.Round(time.Millisecond))

	sb.WriteString(leaderboardTable(batch))

	if len(batch.Results) > 0 && len(batch.Results[0].Generations) > 0 {
		sb.WriteString("\n## Why the winner won\n\n")
		writeReasoning(&sb, batch.Criteria, batch.Results[0])
	}
	return sb.String()
}

func leaderboardTable(batch *tournament.BatchResult) string {
	headers := make([]string, 0, 4+len(batch.Criteria))
	headers = append(headers, "Rank", "Prompt", "Total")
	for _, c := range batch.Criteria {
		headers = append(headers, fmt.Sprintf("%s (x%.2f)", c.Name, c.Weight))
	}
	headers = append(headers, "Time")

	var buf bytes.Buffer
	table := createStandardTable(headers, &buf)
	for i, r := range batch.Results {
		row := make([]string, 0, len(headers))
		row = append(row,
			fmt.Sprintf("%d", i+1),
			excerpt(r.Prompt),
			fmt.Sprintf("%.3f", r.TotalScore),
		)
		for _, c := range batch.Criteria {
			row = append(row, fmt.Sprintf("%.3f", r.FinalScores[c.Name]))
		}
		row = append(row, r.ExecutionTime.Round(time.Millisecond).String())
		_ = table.Append(row)
	}
	_ = table.Render()
	return buf.String()
}

func writeReasoning(sb *strings.Builder, criteria []tournament.Criterion, r tournament.PromptResult) {
	for _, c := range criteria {
		fmt.Fprintf(sb, "### %s\n\n", c.Name)
		for gi, g := range r.Generations {
			for _, reason := range g.AggregatedReasoning[c.Name] {
				fmt.Fprintf(sb, "- generation %d: %s\n", gi+1, oneLine(reason))
			}
		}
		sb.WriteString("\n")
	}
}

// excerpt shortens a prompt to a single table-safe line.
func excerpt(prompt string) string {
	s := oneLine(prompt)
	if utf8.RuneCountInString(s) <= promptExcerptRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:promptExcerptRunes-3]) + "..."
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Table renders rows as a markdown table in the leaderboard's style.
func Table(headers []string, rows [][]string) string {
	var sb strings.Builder
	table := createStandardTable(headers, &sb)
	for _, row := range rows {
		_ = table.Append(row)
	}
	_ = table.Render()
	return sb.String()
}
