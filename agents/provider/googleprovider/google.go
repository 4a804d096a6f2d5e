/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleprovider implements provider.Completer on the Gemini API.
package googleprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mike-khor/llm-tournament-widget/agents/provider"
	"google.golang.org/genai"
)

const (
	// Name is the registered provider name.
	Name = "gemini"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

type config struct {
	model   string
	baseURL string
}

// Option configures the provider.
type Option func(*config) error

// WithModel selects the Gemini model.
func WithModel(model string) Option {
	return func(c *config) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) error {
		c.baseURL = url
		return nil
	}
}

// New creates a Gemini-backed provider using an API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*provider.Model, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cfg := config{model: DefaultModel}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return provider.NewModel(Name, cfg.model, &completer{client: client, model: cfg.model}), nil
}

type completer struct {
	client *genai.Client
	model  string
}

func (c *completer) Complete(ctx context.Context, system, user string, params provider.Params) (provider.Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(params.Temperature)),
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
	if err != nil {
		return provider.Completion{}, err
	}

	out := provider.Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
