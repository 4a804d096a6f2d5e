/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeprovider implements provider.Completer on the Anthropic
// Messages API.
package claudeprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mike-khor/llm-tournament-widget/agents/provider"
)

const (
	// Name is the registered provider name.
	Name = "claude"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"
)

type config struct {
	model   string
	baseURL string
}

// Option configures the provider.
type Option func(*config) error

// WithModel selects the Claude model.
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

// New creates a Claude-backed provider with SDK-level retries disabled.
func New(apiKey string, opts ...Option) (*provider.Model, error) {
	if apiKey == "" {
		return nil, errors.New("claude: API key is required")
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
		client: anthropic.NewClient(clientOpts...),
		model:  cfg.model,
	}), nil
}

type completer struct {
	client anthropic.Client
	model  string
}

func (c *completer) Complete(ctx context.Context, system, user string, params provider.Params) (provider.Completion, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   params.MaxTokens,
		Temperature: anthropic.Float(params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return provider.Completion{}, err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return provider.Completion{
		Text:         sb.String(),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}
