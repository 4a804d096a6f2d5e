/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiprovider implements provider.Completer on the OpenAI chat
// completions API.
package openaiprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mike-khor/llm-tournament-widget/agents/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// Name is the registered provider name.
	Name = "openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini-2024-07-18"
)

type config struct {
	model   string
	baseURL string
}

// Option configures the provider.
type Option func(*config) error

// WithModel selects the chat model.
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

// New creates an OpenAI-backed provider. SDK-level retries are disabled;
// throttled calls are retried by the tournament's retry policy.
func New(apiKey string, opts ...Option) (*provider.Model, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg := config{model: DefaultModel}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	return provider.NewModel(Name, cfg.model, &completer{
		client: openai.NewClient(clientOpts...),
		model:  cfg.model,
	}), nil
}

type completer struct {
	client openai.Client
	model  string
}

func (c *completer) Complete(ctx context.Context, system, user string, params provider.Params) (provider.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(params.MaxTokens),
		Temperature: openai.Float(params.Temperature),
	})
	if err != nil {
		return provider.Completion{}, err
	}

	out := provider.Completion{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}
