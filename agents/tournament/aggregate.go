/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tournament

import (
	"errors"
	"fmt"
)

var errEmptyAggregate = errors.New("nothing to aggregate")

func mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errEmptyAggregate
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// aggregateRuns derives per-criterion means and reasoning across judging
// passes. Every pass must score every criterion.
func aggregateRuns(criteria []Criterion, runs []EvaluationResult) (map[string]float64, map[string][]string, error) {
	scores := make(map[string]float64, len(criteria))
	reasoning := make(map[string][]string, len(criteria))
	for _, c := range criteria {
		values := make([]float64, 0, len(runs))
		reasons := make([]string, 0, len(runs))
		for _, run := range runs {
			s, ok := run.Scores[c.Name]
			if !ok {
				return nil, nil, fmt.Errorf("evaluation %s has no score for %q", run.ID, c.Name)
			}
			values = append(values, s)
			reasons = append(reasons, run.Reasoning[c.Name])
		}
		m, err := mean(values)
		if err != nil {
			return nil, nil, fmt.Errorf("criterion %q: %w", c.Name, err)
		}
		scores[c.Name] = m
		reasoning[c.Name] = reasons
	}
	return scores, reasoning, nil
}

// aggregateGenerations averages each criterion over the generations and
// weights the result. Weights are applied as given.
func aggregateGenerations(criteria []Criterion, gens []GenerationEvaluationResult) (map[string]float64, float64, error) {
	final := make(map[string]float64, len(criteria))
	var total float64
	for _, c := range criteria {
		values := make([]float64, 0, len(gens))
		for _, g := range gens {
			values = append(values, g.AggregatedScores[c.Name])
		}
		m, err := mean(values)
		if err != nil {
			return nil, 0, fmt.Errorf("criterion %q: %w", c.Name, err)
		}
		final[c.Name] = m
		total += m * c.Weight
	}
	return final, total, nil
}

func zeroScores(criteria []Criterion) map[string]float64 {
	scores := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		scores[c.Name] = 0
	}
	return scores
}
