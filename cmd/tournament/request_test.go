/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
	"github.com/stretchr/testify/require"
)

func TestLoadRequest(t *testing.T) {
	want := tournament.Request{
		Prompts:         []string{"Be terse.", "Be thorough."},
		TestInput:       "What is DNS?",
		Criteria:        []tournament.Criterion{{Name: "accuracy", Description: "Is it right?", Weight: 1}},
		GenerationCount: 2,
		EvaluationCount: 1,
	}

	files := map[string]string{
		"request.yaml": `prompts:
  - Be terse.
  - Be thorough.
test_input: What is DNS?
criteria:
  - name: accuracy
    description: Is it right?
    weight: 1
generation_count: 2
evaluation_count: 1
`,
		"request.json": `{
  "prompts": ["Be terse.", "Be thorough."],
  "test_input": "What is DNS?",
  "criteria": [{"name": "accuracy", "description": "Is it right?", "weight": 1}],
  "generation_count": 2,
  "evaluation_count": 1
}`,
	}
	dir := t.TempDir()
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			got, err := loadRequest(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("loadRequest() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := loadRequest(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	base := func() tournament.Request {
		return tournament.Request{Prompts: []string{"a", "b"}, TestInput: "q"}
	}

	t.Run("defaults", func(t *testing.T) {
		got, err := normalize(base(), 10)
		require.NoError(t, err)
		require.Equal(t, defaultRunCount, got.GenerationCount)
		require.Equal(t, defaultRunCount, got.EvaluationCount)
		if diff := cmp.Diff(tournament.DefaultCriteria(), got.Criteria); diff != "" {
			t.Errorf("criteria mismatch (-want +got):\n%s", diff)
		}
	})

	tests := []struct {
		name   string
		mutate func(*tournament.Request)
		max    int
	}{
		{name: "no prompts", mutate: func(r *tournament.Request) { r.Prompts = nil }, max: 10},
		{name: "too many prompts", mutate: func(r *tournament.Request) {}, max: 1},
		{name: "empty prompt", mutate: func(r *tournament.Request) { r.Prompts[1] = "" }, max: 10},
		{name: "generations over bound", mutate: func(r *tournament.Request) { r.GenerationCount = 11 }, max: 10},
		{name: "negative evaluations", mutate: func(r *tournament.Request) { r.EvaluationCount = -1 }, max: 10},
		{name: "duplicate criterion", mutate: func(r *tournament.Request) {
			r.Criteria = []tournament.Criterion{{Name: "x", Weight: 0.5}, {Name: "x", Weight: 0.5}}
		}, max: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			_, err := normalize(req, tt.max)
			require.Error(t, err)
		})
	}
}
