/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package providerfactory constructs providers by registered name.
package providerfactory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mike-khor/llm-tournament-widget/agents/provider"
	"github.com/mike-khor/llm-tournament-widget/agents/provider/claudeprovider"
	"github.com/mike-khor/llm-tournament-widget/agents/provider/googleprovider"
	"github.com/mike-khor/llm-tournament-widget/agents/provider/openaiprovider"
)

// Credentials holds the API key of every supported backend. Only the key of
// the selected provider needs to be set.
type Credentials struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
}

// Selection picks a provider and model. An empty Model uses the provider default.
// BaseURL overrides the API endpoint.
type Selection struct {
	Name    string
	Model   string
	BaseURL string
}

var defaultModels = map[string]string{
	openaiprovider.Name: openaiprovider.DefaultModel,
	claudeprovider.Name: claudeprovider.DefaultModel,
	googleprovider.Name: googleprovider.DefaultModel,
}

// Names returns the registered provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(defaultModels))
	for name := range defaultModels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultModel returns the default model of a registered provider.
func DefaultModel(name string) (string, bool) {
	m, ok := defaultModels[strings.ToLower(name)]
	return m, ok
}

// New creates the provider a Selection names.
func New(ctx context.Context, sel Selection, creds Credentials) (provider.Interface, error) {
	name := strings.ToLower(strings.TrimSpace(sel.Name))
	model := sel.Model
	if model == "" {
		model = defaultModels[name]
	}

	switch name {
	case openaiprovider.Name:
		opts := []openaiprovider.Option{openaiprovider.WithModel(model)}
		if sel.BaseURL != "" {
			opts = append(opts, openaiprovider.WithBaseURL(sel.BaseURL))
		}
		return nonNil(openaiprovider.New(creds.OpenAIAPIKey, opts...))

	case claudeprovider.Name:
		opts := []claudeprovider.Option{claudeprovider.WithModel(model)}
		if sel.BaseURL != "" {
			opts = append(opts, claudeprovider.WithBaseURL(sel.BaseURL))
		}
		return nonNil(claudeprovider.New(creds.AnthropicAPIKey, opts...))

	case googleprovider.Name:
		opts := []googleprovider.Option{googleprovider.WithModel(model)}
		if sel.BaseURL != "" {
			opts = append(opts, googleprovider.WithBaseURL(sel.BaseURL))
		}
		return nonNil(googleprovider.New(ctx, creds.GeminiAPIKey, opts...))

	default:
		return nil, fmt.Errorf("unsupported provider %q (expected one of %s)", sel.Name, strings.Join(Names(), ", "))
	}
}

// nonNil keeps a failed constructor from yielding a non-nil interface
// holding a nil *provider.Model.
func nonNil(m *provider.Model, err error) (provider.Interface, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
