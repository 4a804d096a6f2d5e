/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
	"gopkg.in/yaml.v3"
)

const (
	defaultRunCount = 3
	maxRunCount     = 10
)

// loadRequest reads a tournament request from a YAML or JSON file.
// JSON is a subset of YAML, so one decoder serves both.
func loadRequest(path string) (tournament.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tournament.Request{}, fmt.Errorf("reading request: %w", err)
	}
	var req tournament.Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return tournament.Request{}, fmt.Errorf("parsing request %s: %w", path, err)
	}
	return req, nil
}

// normalize fills in defaults and enforces the bounds a caller may ask
// for, before the orchestrator applies its own validation.
func normalize(req tournament.Request, maxPrompts int) (tournament.Request, error) {
	if len(req.Criteria) == 0 {
		req.Criteria = tournament.DefaultCriteria()
	}
	if req.GenerationCount == 0 {
		req.GenerationCount = defaultRunCount
	}
	if req.EvaluationCount == 0 {
		req.EvaluationCount = defaultRunCount
	}

	switch {
	case len(req.Prompts) == 0:
		return req, errors.New("at least one prompt is required")
	case maxPrompts > 0 && len(req.Prompts) > maxPrompts:
		return req, fmt.Errorf("%d prompts exceeds the limit of %d", len(req.Prompts), maxPrompts)
	case req.GenerationCount < 1 || req.GenerationCount > maxRunCount:
		return req, fmt.Errorf("generation count must be between 1 and %d, got %d", maxRunCount, req.GenerationCount)
	case req.EvaluationCount < 1 || req.EvaluationCount > maxRunCount:
		return req, fmt.Errorf("evaluation count must be between 1 and %d, got %d", maxRunCount, req.EvaluationCount)
	}
	for i, p := range req.Prompts {
		if p == "" {
			return req, fmt.Errorf("prompt %d is empty", i+1)
		}
	}
	return req, req.Validate()
}
