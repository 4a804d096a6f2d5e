/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package provider defines the capability every language-model backend
// offers the tournament: generate a completion for a prompt, and judge a
// completion against one criterion.
//
// Backends only implement Completer. Model layers the shared generation and
// judging behavior on top, so every backend sends the same judging prompt,
// uses the same call parameters and recovers malformed answers the same way.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/mike-khor/llm-tournament-widget/agents/judge"
	"github.com/mike-khor/llm-tournament-widget/agents/metrics"
)

const (
	// EmptyGeneration replaces a generation whose content came back empty.
	EmptyGeneration = "No response generated. The model returned empty content."

	// EstimatedGenerationChars sizes a generation for rate limiter admission.
	EstimatedGenerationChars = 500

	// EstimatedJudgeChars sizes a judge answer for rate limiter admission.
	EstimatedJudgeChars = 200
)

// GenerationFailed is the placeholder output recorded for a failed generation.
func GenerationFailed(err error) string {
	return "Generation failed: " + err.Error()
}

// Interface is the capability the orchestrator consumes.
type Interface interface {
	// Name is the registered provider name, e.g. "openai".
	Name() string
	// Model is the model the provider calls.
	Model() string
	// Generate completes userInput under systemPrompt.
	Generate(ctx context.Context, systemPrompt, userInput string) (string, error)
	// Judge scores a response against one criterion.
	Judge(ctx context.Context, req judge.Request) (judge.Judgement, error)
}

// Params are the sampling parameters for one call.
type Params struct {
	MaxTokens   int64
	Temperature float64
}

var (
	// GenerationParams favor varied completions.
	GenerationParams = Params{MaxTokens: 500, Temperature: 0.7}
	// JudgeParams favor short, repeatable judgements.
	JudgeParams = Params{MaxTokens: 200, Temperature: 0.1}
)

// Completion is the text and reported usage of one call.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Completer is implemented by each backend. System may be empty.
type Completer interface {
	Complete(ctx context.Context, system, user string, params Params) (Completion, error)
}

// Error is a failed backend call.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Model adapts a Completer into an Interface.
type Model struct {
	name      string
	model     string
	completer Completer
	metrics   *metrics.GenAI
}

var _ Interface = (*Model)(nil)

// NewModel creates a Model for the named provider.
func NewModel(name, model string, c Completer) *Model {
	return &Model{
		name:      name,
		model:     model,
		completer: c,
		metrics:   metrics.NewGenAI(metrics.MeterName),
	}
}

// Name implements Interface.
func (m *Model) Name() string { return m.name }

// Model implements Interface.
func (m *Model) Model() string { return m.model }

// Generate implements Interface. Content is returned trimmed. Empty content
// is not an error; it is replaced with EmptyGeneration.
func (m *Model) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	c, err := m.complete(ctx, "generate", systemPrompt, userInput, GenerationParams)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(c.Text) == "" {
		clog.FromContext(ctx).With("provider", m.name).With("model", m.model).
			Warn("Model returned empty content")
		return EmptyGeneration, nil
	}
	return strings.TrimSpace(c.Text), nil
}

// Judge implements Interface. Only transport and API failures are returned
// as errors; an answer that cannot be parsed is recovered as a neutral
// judgement.
func (m *Model) Judge(ctx context.Context, req judge.Request) (judge.Judgement, error) {
	prompt, err := judge.BuildPrompt(req)
	if err != nil {
		return judge.Judgement{}, &Error{Provider: m.name, Op: "judge", Err: err}
	}
	c, err := m.complete(ctx, "judge", "", prompt, JudgeParams)
	if err != nil {
		return judge.Judgement{}, err
	}
	j, perr := judge.Parse(c.Text)
	if perr != nil {
		clog.FromContext(ctx).With("provider", m.name).With("model", m.model).
			With("criterion", req.CriterionName).
			With("error", perr).
			Warn("Judge answer could not be parsed")
		return judge.Recover(c.Text), nil
	}
	return j, nil
}

func (m *Model) complete(ctx context.Context, op, system, user string, params Params) (Completion, error) {
	c, err := m.completer.Complete(ctx, system, user, params)
	if err != nil {
		return Completion{}, &Error{Provider: m.name, Op: op, Err: err}
	}
	if c.InputTokens > 0 || c.OutputTokens > 0 {
		m.metrics.RecordTokens(ctx, m.name, m.model, op, c.InputTokens, c.OutputTokens)
	}
	return c, nil
}
