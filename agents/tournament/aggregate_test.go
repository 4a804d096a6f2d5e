/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tournament

import (
	"errors"
	"testing"
)

func TestMeanRejectsEmpty(t *testing.T) {
	if _, err := mean(nil); !errors.Is(err, errEmptyAggregate) {
		t.Errorf("mean(nil) error = %v, want %v", err, errEmptyAggregate)
	}
	if got, err := mean([]float64{0.2, 0.4}); err != nil || got < 0.3-1e-9 || got > 0.3+1e-9 {
		t.Errorf("mean() = %v, %v", got, err)
	}
}

func TestAggregateRunsMissingCriterion(t *testing.T) {
	criteria := []Criterion{{Name: "accuracy", Weight: 1}, {Name: "safety", Weight: 1}}
	runs := []EvaluationResult{{ID: "r1", Scores: map[string]float64{"accuracy": 1}}}
	if _, _, err := aggregateRuns(criteria, runs); err == nil {
		t.Error("aggregateRuns() accepted a pass without every criterion")
	}
}

func TestAggregateGenerationsWeightsAsGiven(t *testing.T) {
	criteria := []Criterion{{Name: "a", Weight: 1}, {Name: "b", Weight: 1}}
	gens := []GenerationEvaluationResult{
		{AggregatedScores: map[string]float64{"a": 1, "b": 0.5}},
		{AggregatedScores: map[string]float64{"a": 0, "b": 0.5}},
	}
	final, total, err := aggregateGenerations(criteria, gens)
	if err != nil {
		t.Fatalf("aggregateGenerations() = %v", err)
	}
	if final["a"] != 0.5 || final["b"] != 0.5 {
		t.Errorf("final = %v", final)
	}
	// Weights summing past one are not renormalized.
	if total != 1 {
		t.Errorf("total = %v, want 1", total)
	}
	if _, _, err := aggregateGenerations(criteria, nil); err == nil {
		t.Error("aggregateGenerations() accepted zero generations")
	}
}
