/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package archive

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
)

func sample() *tournament.BatchResult {
	return &tournament.BatchResult{
		ID:                 "batch-7",
		CreatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TestInput:          "What is 2+2?",
		Criteria:           []tournament.Criterion{{Name: "accuracy", Weight: 1, ScoreType: tournament.Continuous}},
		GenerationProvider: "openai",
		GenerationModel:    "gpt-4o-mini-2024-07-18",
		EvaluationProvider: "openai",
		EvaluationModel:    "gpt-4o-mini-2024-07-18",
		ExecutionTime:      2 * time.Second,
		Results: []tournament.PromptResult{{
			ID:     "p1",
			Prompt: "Answer with a number.",
			Generations: []tournament.GenerationEvaluationResult{{
				Generation: tournament.GenerationResult{ID: "g1", Output: "4", GenerationTime: 300 * time.Millisecond},
				Evaluations: []tournament.EvaluationResult{{
					ID:             "e1",
					Scores:         map[string]float64{"accuracy": 1},
					Reasoning:      map[string]string{"accuracy": "Correct."},
					EvaluationTime: 200 * time.Millisecond,
				}},
				AggregatedScores:    map[string]float64{"accuracy": 1},
				AggregatedReasoning: map[string][]string{"accuracy": {"Correct."}},
			}},
			FinalScores:     map[string]float64{"accuracy": 1},
			TotalScore:      1,
			ExecutionTime:   600 * time.Millisecond,
			GenerationCount: 1,
			EvaluationCount: 1,
		}},
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"out/batch.json":       JSON,
		"batch.YAML":           YAML,
		"gs://b/runs/x.yml":    YAML,
		"no-extension":         JSON,
		"gs://b/runs/x.ndjson": JSON,
	}
	for dest, want := range tests {
		if got := FormatFor(dest); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", dest, got, want)
		}
	}
}

func TestParseGCS(t *testing.T) {
	tests := []struct {
		loc            string
		bucket, object string
		ok             bool
	}{
		{loc: "gs://bucket/a/b.json", bucket: "bucket", object: "a/b.json", ok: true},
		{loc: "gs://bucket", ok: false},
		{loc: "gs:///object", ok: false},
		{loc: "/tmp/gs://x", ok: false},
		{loc: "out.json", ok: false},
	}
	for _, tt := range tests {
		bucket, object, ok := parseGCS(tt.loc)
		if bucket != tt.bucket || object != tt.object || ok != tt.ok {
			t.Errorf("parseGCS(%q) = %q, %q, %v", tt.loc, bucket, object, ok)
		}
	}
}

func TestSaveAndLoadLocal(t *testing.T) {
	for _, name := range []string{"nested/dir/batch.json", "batch.yaml"} {
		t.Run(name, func(t *testing.T) {
			a, err := New()
			if err != nil {
				t.Fatalf("New() = %v", err)
			}
			defer a.Close()

			dest := filepath.Join(t.TempDir(), name)
			if err := a.Save(context.Background(), dest, sample()); err != nil {
				t.Fatalf("Save() = %v", err)
			}

			got, err := a.Load(context.Background(), dest)
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if diff := cmp.Diff(sample(), got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeYAMLIsReadable(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample(), YAML); err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	for _, want := range []string{"id: batch-7", "total_score: 1", "prompt: Answer with a number."} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("YAML is missing %q:\n%s", want, buf.String())
		}
	}
}

func TestLoadMissing(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if _, err := a.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(WithStorageClient(nil)); err == nil {
		t.Error("New(WithStorageClient(nil)) succeeded")
	}
}
